package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/hajimehoshi/oto"
	"golang.org/x/time/rate"
)

const (
	sampleRate      = 44100
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	fftSize         = 2048 // multiple of samplesPerCycle
	maxPoly         = 8
	numOscs         = 3
	noteDuration    = 1.0 // sec
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate
const baseFreq = 440.0

// ----- Utility ----- //

func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}
func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- State ----- //

type state struct {
	sync.Mutex
	params *params
	voices *voiceBank
	poly   *polyphony
	pos    int64
	out    []float64 // length: fftSize
}

func newState() *state {
	voices := newVoiceBank(maxPoly)
	return &state{
		params: newParams(),
		voices: voices,
		poly:   newPolyphony(voices),
		out:    make([]float64, fftSize),
	}
}

// ----- Audio ----- //

// Audio is one synthesizer session. It renders notes on trigger and plays
// them through oto by implementing io.Reader.
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	state      *state
	clipLog    *rate.Sometimes
}

var _ io.Reader = (*Audio)(nil)

// NewAudio opens the output device.
func NewAudio() (*Audio, error) {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	audio := newAudio(otoContext)
	go processCommands(audio, audio.CommandCh)
	return audio, nil
}

func newAudio(otoContext *oto.Context) *Audio {
	return &Audio{
		ctx:        context.Background(),
		otoContext: otoContext,
		CommandCh:  make(chan []string, 256),
		state:      newState(),
		clipLog:    &rate.Sometimes{Interval: time.Second},
	}
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.Update(command); err != nil {
			log.Printf("error: %v\n", err)
		}
	}
	log.Println("processCommands() ended.")
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	if a.otoContext == nil {
		return nil
	}
	return a.otoContext.Close()
}

// Start plays until ctx is cancelled.
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
	}
	a.state.Lock()
	defer a.state.Unlock()
	bufSamples := len(buf) / bytesPerSample
	clipped := false
	for i := 0; i < bufSamples; i++ {
		value := a.state.voices.step()
		if value > 1 {
			value, clipped = 1, true
		} else if value < -1 {
			value, clipped = -1, true
		}
		a.state.out[(a.state.pos+int64(i))%fftSize] = value
		writeSample(value, buf[bytesPerSample*i:])
	}
	a.state.pos += int64(bufSamples)
	if clipped {
		a.clipLog.Do(func() {
			log.Println("[WARN] output clipped")
		})
	}
	return bufSamples * bytesPerSample, nil
}

// writeSample writes value to every channel of one 16-bit frame.
func writeSample(value float64, frame []byte) {
	const max = 32767
	b := int16(value * max)
	for ch := 0; ch < channelNum; ch++ {
		frame[2*ch] = byte(b)
		frame[2*ch+1] = byte(b >> 8)
	}
}

// ----- Notes ----- //

// NoteOn renders a note and assigns it a voice. Repeated triggers of a
// sounding note are ignored.
func (a *Audio) NoteOn(note NoteID, freq float64) error {
	if !(freq > 0) || math.IsInf(freq, 0) {
		return fmt.Errorf("%w: frequency %v", ErrInvalidNote, freq)
	}
	a.state.Lock()
	if a.state.poly.isLive(note) {
		a.state.Unlock()
		return nil
	}
	oscs := a.state.params.snapshotOscs()
	a.state.Unlock()

	sig, err := renderNote(oscs, freq, noteDuration)
	if err != nil {
		return err
	}

	a.state.Lock()
	defer a.state.Unlock()
	if slot, ok := a.state.poly.trigger(note, sig); ok {
		log.Printf("note on: %v (%.2fHz) -> slot %v (%v/%v busy)\n", note, freq, slot, a.state.voices.numBusy(), maxPoly)
	}
	return nil
}

// NoteOff stops a sounding note. Unknown notes are ignored.
func (a *Audio) NoteOff(note NoteID) {
	a.state.Lock()
	defer a.state.Unlock()
	if a.state.poly.release(note) {
		log.Printf("note off: %v\n", note)
	}
}

// AddMidiEvent handles a raw MIDI message.
func (a *Audio) AddMidiEvent(data []byte) {
	e, ok := parseNoteEvent(data)
	if !ok {
		return
	}
	if !e.on {
		a.NoteOff(midiNoteID(e.note))
		return
	}
	if err := a.NoteOn(midiNoteID(e.note), noteToFreq(e.note)); err != nil {
		log.Printf("error: %v\n", err)
	}
}

// ActiveNotes returns the number of notes currently sounding.
func (a *Audio) ActiveNotes() int {
	a.state.Lock()
	defer a.state.Unlock()
	return a.state.poly.notes()
}

// ----- Control Surface ----- //

// Update applies one command line such as ["set", "filter", "0", "cutoff", "2000"].
func (a *Audio) Update(command []string) error {
	if err := a.update(command); err != nil {
		return &CommandError{Command: command, Cause: err}
	}
	return nil
}

func (a *Audio) update(command []string) error {
	if len(command) == 0 {
		return ErrUnknownCommand
	}
	switch command[0] {
	case "set":
		a.state.Lock()
		defer a.state.Unlock()
		return a.set(command[1:])
	case "note_on":
		if len(command) != 3 {
			return fmt.Errorf("%w: note_on <id> <freq>", ErrInvalidNote)
		}
		freq, err := strconv.ParseFloat(command[2], 64)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidNote, err)
		}
		return a.NoteOn(NoteID(command[1]), freq)
	case "note_off":
		if len(command) != 2 {
			return fmt.Errorf("%w: note_off <id>", ErrInvalidNote)
		}
		a.NoteOff(NoteID(command[1]))
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnknownCommand, command[0])
}

// set must be called with the state lock held.
func (a *Audio) set(command []string) error {
	if len(command) == 0 {
		return ErrUnknownCommand
	}
	p := a.state.params
	switch command[0] {
	case "release":
		if len(command) != 2 {
			return fmt.Errorf("%w: set release <ms>", ErrInvalidParam)
		}
		if err := p.setRelease(command[1]); err != nil {
			return err
		}
		a.state.voices.release = p.release
		return nil
	case "osc", "filter", "lfo":
		if len(command) != 4 {
			return fmt.Errorf("%w: invalid key-value pair %v", ErrInvalidParam, command[1:])
		}
		index, err := strconv.ParseInt(command[1], 10, 64)
		if err != nil || index < 0 || int(index) >= len(p.oscParams) {
			return fmt.Errorf("%w: osc index %v", ErrInvalidParam, command[1])
		}
		o := p.oscParams[index]
		key, value := command[2], command[3]
		switch command[0] {
		case "osc":
			return o.set(key, value)
		case "filter":
			return o.filter.set(key, value)
		default:
			return o.lfo.set(key, value)
		}
	}
	return fmt.Errorf("%w: set %v", ErrUnknownCommand, command[0])
}

// ApplyJSON replaces the session parameters.
func (a *Audio) ApplyJSON(data []byte) error {
	a.state.Lock()
	defer a.state.Unlock()
	if err := a.state.params.applyJSON(data); err != nil {
		return err
	}
	a.state.voices.release = a.state.params.release
	return nil
}

// ToJSON ...
func (a *Audio) ToJSON() []byte {
	a.state.Lock()
	defer a.state.Unlock()
	return a.state.params.toJSON()
}

// ----- Reports ----- //

// GetFilterShape returns the magnitude response of one oscillator's filter.
func (a *Audio) GetFilterShape(index int) ([]float64, error) {
	a.state.Lock()
	if index < 0 || index >= len(a.state.params.oscParams) {
		a.state.Unlock()
		return nil, fmt.Errorf("%w: osc index %v", ErrInvalidParam, index)
	}
	f := a.state.params.oscParams[index].filter
	a.state.Unlock()
	return f.frequencyResponse()
}

// GetFFT returns the magnitude spectrum of the last fftSize output samples.
func (a *Audio) GetFFT() []float64 {
	result := make([]float64, fftSize)
	a.state.Lock()
	// out:    | 4 | 1 | 2 | 3 |
	// offset:     ^
	// result: | 1 | 2 | 3 | 4 |
	offset := a.state.pos % fftSize
	copy(result, a.state.out[offset:])
	copy(result[fftSize-offset:], a.state.out[:offset])
	a.state.Unlock()
	applyWindow(result, han)
	spectrum.calcAbs(result)
	for i, value := range result {
		result[i] = value * 2 / fftSize
	}
	return result[:fftSize/2]
}
