package audio

import (
	"log"
)

// NoteID identifies one sounding note, e.g. one per physical key.
type NoteID string

// ----- Polyphony ----- //

// polyphony maps notes to voice slots. At most one slot per note; when every
// slot is busy the note in slot 0 is stolen. Not safe for concurrent use.
type polyphony struct {
	sink   voiceSink
	active map[NoteID]int
}

func newPolyphony(sink voiceSink) *polyphony {
	return &polyphony{
		sink:   sink,
		active: make(map[NoteID]int, sink.numSlots()),
	}
}

// lookup returns the slot of a live note. Entries whose slot has finished
// playing are dropped.
func (p *polyphony) lookup(note NoteID) (int, bool) {
	slot, ok := p.active[note]
	if !ok {
		return 0, false
	}
	if !p.sink.busy(slot) {
		delete(p.active, note)
		return 0, false
	}
	return slot, true
}

func (p *polyphony) isLive(note NoteID) bool {
	_, ok := p.lookup(note)
	return ok
}

// trigger starts sig for note and returns the chosen slot. A note that is
// still sounding is left alone and ok is false.
func (p *polyphony) trigger(note NoteID, sig Signal) (slot int, ok bool) {
	if p.isLive(note) {
		return 0, false
	}
	slot = p.allocate()
	p.sink.play(slot, sig)
	p.active[note] = slot
	return slot, true
}

// release stops a live note. Unknown notes are ignored.
func (p *polyphony) release(note NoteID) bool {
	slot, ok := p.lookup(note)
	if !ok {
		return false
	}
	p.sink.stop(slot)
	delete(p.active, note)
	return true
}

// allocate returns the first free slot in index order, stealing slot 0 when
// none is free. Whatever note held the slot before is forgotten.
func (p *polyphony) allocate() int {
	slot := -1
	for i := 0; i < p.sink.numSlots(); i++ {
		if !p.sink.busy(i) {
			slot = i
			break
		}
	}
	if slot < 0 {
		slot = 0
		p.sink.stop(slot)
		log.Printf("voice stolen: slot %v (note %v)\n", slot, p.noteAt(slot))
	}
	for note, s := range p.active {
		if s == slot {
			delete(p.active, note)
		}
	}
	return slot
}

func (p *polyphony) noteAt(slot int) NoteID {
	for note, s := range p.active {
		if s == slot {
			return note
		}
	}
	return ""
}

// notes returns the number of live notes.
func (p *polyphony) notes() int {
	n := 0
	for note := range p.active {
		if p.isLive(note) {
			n++
		}
	}
	return n
}
