package audio

// ----- Voice Sink ----- //

// voiceSink plays finished signals on a fixed number of slots and reports
// which of them are still sounding.
type voiceSink interface {
	numSlots() int
	busy(slot int) bool
	play(slot int, sig Signal)
	stop(slot int)
}

// ----- Voice Slot ----- //

type voiceSlot struct {
	signal    Signal
	pos       int
	gain      transitiveValue
	releasing bool
}

func (v *voiceSlot) busy() bool {
	return v.signal != nil && v.pos < len(v.signal)
}

func (v *voiceSlot) free() {
	v.signal = nil
	v.pos = 0
	v.releasing = false
}

// ----- Voice Bank ----- //

// voiceBank is the voiceSink rendered by Audio.Read.
type voiceBank struct {
	slots   []*voiceSlot
	release float64 // ms, 0 stops abruptly
}

var _ voiceSink = (*voiceBank)(nil)

func newVoiceBank(n int) *voiceBank {
	slots := make([]*voiceSlot, n)
	for i := range slots {
		slots[i] = &voiceSlot{}
	}
	return &voiceBank{
		slots: slots,
	}
}

func (b *voiceBank) numSlots() int {
	return len(b.slots)
}

func (b *voiceBank) busy(slot int) bool {
	return b.slots[slot].busy()
}

func (b *voiceBank) play(slot int, sig Signal) {
	s := b.slots[slot]
	s.free()
	s.signal = sig
	s.gain.init(1)
}

// stop silences a slot, fading out over b.release when set. A fading slot
// stays busy until the fade ends.
func (b *voiceBank) stop(slot int) {
	s := b.slots[slot]
	if !s.busy() || b.release <= 0 {
		s.free()
		return
	}
	if s.releasing {
		return
	}
	s.releasing = true
	s.gain.linear(b.release, 0)
}

// step mixes the next sample of every sounding slot.
func (b *voiceBank) step() float64 {
	value := 0.0
	for _, s := range b.slots {
		if !s.busy() {
			if s.signal != nil {
				s.free()
			}
			continue
		}
		value += s.signal[s.pos] * s.gain.value
		s.pos++
		if s.gain.step() && s.releasing {
			s.free()
		}
	}
	return value
}

func (b *voiceBank) numBusy() int {
	n := 0
	for _, s := range b.slots {
		if s.busy() {
			n++
		}
	}
	return n
}
