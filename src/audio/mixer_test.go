package audio

import (
	"math"
	"testing"
)

func TestMixIsMean(t *testing.T) {
	out := mixSignals([]Signal{{1, 1, 0}, {0, -1, 0}, {0.5, 0, 0.3}})
	expectEqual(t, len(out), 3)
	expectNearlyEqual(t, out[0], 0.5)
	expectNearlyEqual(t, out[1], 0)
	expectNearlyEqual(t, out[2], 0.1)
	expectEqual(t, len(mixSignals(nil)), 0)
}

func TestMixStaysWithinLayers(t *testing.T) {
	layers := []Signal{
		generateWave(waveSawtooth, 440, 0.1),
		generateWave(waveSquare, 660, 0.1),
		generateWave(waveSine, 220, 0.1),
	}
	out := mixSignals(layers)
	for i, v := range out {
		if math.Abs(v) > 1 {
			t.Fatalf("expected |v| <= 1, but got %v at %v", v, i)
		}
	}
}

func TestMixPanicsOnLengthMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic")
		}
	}()
	mixSignals([]Signal{make(Signal, 2), make(Signal, 3)})
}

func TestRenderNote(t *testing.T) {
	p := newParams()
	expectNoError(t, p.oscParams[1].set("kind", "off"))
	expectNoError(t, p.oscParams[2].set("kind", "off"))
	oscs := p.snapshotOscs()

	out, err := renderNote(oscs, 440, 0.1)
	expectNoError(t, err)
	single, err := oscs[0].generate(440, 0.1)
	expectNoError(t, err)
	expectEqual(t, len(out), len(single))
	for i := range out {
		expectNearlyEqual(t, out[i], single[i]/3)
	}
}
