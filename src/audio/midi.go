package audio

import (
	"context"
	"fmt"
	"log"

	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
)

// ListenToMidiIn streams raw messages from the first MIDI input until ctx is
// done. The channel is closed when listening stops.
func ListenToMidiIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 65536)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		in, err := openFirstIn(drv)
		if err != nil {
			log.Printf("[WARN] %v\n", err)
			return
		}
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			msg := make([]byte, len(data))
			copy(msg, data)
			select {
			case ch <- msg:
			default:
				log.Println("[WARN] MIDI buffer full")
			}
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
			return
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch
}

func openFirstIn(drv midi.Driver) (midi.In, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to get MIDI IN: %w", err)
	}
	log.Printf("MIDI IN: %v\n", ins)
	if len(ins) == 0 {
		return nil, fmt.Errorf("MIDI IN not found")
	}
	in := ins[0]
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("failed to open MIDI IN: %w", err)
	}
	log.Println("opened " + in.String())
	return in, nil
}

// ----- MIDI Event ----- //

const (
	midiNoteOff = 0x8
	midiNoteOn  = 0x9
)

type noteEvent struct {
	on   bool
	note int
}

// parseNoteEvent decodes note-on/off channel messages. Note-on with zero
// velocity is a note-off.
func parseNoteEvent(data []byte) (noteEvent, bool) {
	if len(data) < 3 {
		return noteEvent{}, false
	}
	note := int(data[1] & 0x7f)
	switch data[0] >> 4 {
	case midiNoteOff:
		return noteEvent{on: false, note: note}, true
	case midiNoteOn:
		return noteEvent{on: data[2] > 0, note: note}, true
	}
	return noteEvent{}, false
}

func midiNoteID(note int) NoteID {
	return NoteID(fmt.Sprintf("midi-%d", note))
}
