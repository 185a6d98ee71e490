package audio

import (
	"testing"
)

func TestParseNoteEvent(t *testing.T) {
	e, ok := parseNoteEvent([]byte{0x90, 60, 100})
	expectEqual(t, ok, true)
	expectEqual(t, e, noteEvent{on: true, note: 60})

	e, ok = parseNoteEvent([]byte{0x93, 61, 0})
	expectEqual(t, ok, true)
	expectEqual(t, e, noteEvent{on: false, note: 61})

	e, ok = parseNoteEvent([]byte{0x85, 62, 64})
	expectEqual(t, ok, true)
	expectEqual(t, e, noteEvent{on: false, note: 62})

	_, ok = parseNoteEvent([]byte{0xb0, 1, 64})
	expectEqual(t, ok, false)
	_, ok = parseNoteEvent([]byte{0x90, 60})
	expectEqual(t, ok, false)
}

func TestNoteToFreq(t *testing.T) {
	expectNearlyEqual(t, noteToFreq(69), 440)
	expectNearlyEqual(t, noteToFreq(81), 880)
	expectNearlyEqual(t, noteToFreq(60), 261.6256)
	expectEqual(t, midiNoteID(60), NoteID("midi-60"))
}
