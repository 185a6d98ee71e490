package audio

import (
	"fmt"
	"math"
	"math/rand"
)

// ----- Wave Kind ----- //

const (
	waveSine = iota
	waveSawtooth
	waveTriangle
	waveSquare
	wavePulse
	waveNoiseWhite
	waveNoisePink
	waveNoiseBrown
	numWaveKinds
)

var waveKindNames = [numWaveKinds]string{
	waveSine:       "sine",
	waveSawtooth:   "sawtooth",
	waveTriangle:   "triangle",
	waveSquare:     "square",
	wavePulse:      "pulse",
	waveNoiseWhite: "white",
	waveNoisePink:  "pink",
	waveNoiseBrown: "brown",
}

func waveKindFromString(s string) (int, error) {
	for kind, name := range waveKindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWaveKind, s)
}
func waveKindToString(kind int) string {
	if kind < 0 || kind >= numWaveKinds {
		return "none"
	}
	return waveKindNames[kind]
}

// ----- Signal ----- //

// Signal is one mono channel sampled at sampleRate.
type Signal []float64

func signalLength(duration float64) int {
	return int(math.Round(duration * sampleRate))
}

// ----- Wave Generator ----- //

type waveFunc func(freq float64, out Signal)

var waveFuncs = [numWaveKinds]waveFunc{
	waveSine:       periodic(sineAtPhase),
	waveSawtooth:   periodic(sawtoothAtPhase),
	waveTriangle:   periodic(triangleAtPhase),
	waveSquare:     periodic(pulseAtPhase(0.5)),
	wavePulse:      periodic(pulseAtPhase(0.1)),
	waveNoiseWhite: whiteNoise,
	waveNoisePink:  pinkNoise,
	waveNoiseBrown: brownNoise,
}

// generateWave returns round(duration * sampleRate) samples of the given kind.
// Kinds without a generator produce silence.
func generateWave(kind int, freq float64, duration float64) Signal {
	out := make(Signal, signalLength(duration))
	if kind < 0 || kind >= numWaveKinds || waveFuncs[kind] == nil {
		return out
	}
	waveFuncs[kind](freq, out)
	return out
}

// periodic evaluates f at the phase (0 <= p < 1) of every sample.
func periodic(f func(p float64) float64) waveFunc {
	return func(freq float64, out Signal) {
		for i := range out {
			cycles := float64(i) * freq / sampleRate
			out[i] = f(cycles - math.Floor(cycles))
		}
	}
}

func sineAtPhase(p float64) float64 {
	return math.Sin(2.0 * math.Pi * p)
}

func sawtoothAtPhase(p float64) float64 {
	return p*2 - 1
}

// triangleAtPhase folds a symmetric sawtooth: 2|saw(width=0.5)| - 1.
func triangleAtPhase(p float64) float64 {
	saw := 0.0
	if p < 0.5 {
		saw = p*4 - 1
	} else {
		saw = p*(-4) + 3
	}
	return 2*math.Abs(saw) - 1
}

func pulseAtPhase(duty float64) func(p float64) float64 {
	return func(p float64) float64 {
		if p < duty {
			return 1
		}
		return -1
	}
}

func whiteNoise(freq float64, out Signal) {
	for i := range out {
		out[i] = rand.NormFloat64()
	}
}

// pinkNoise filters white noise with Paul Kellet's refined -3dB/octave filter.
func pinkNoise(freq float64, out Signal) {
	var b0, b1, b2, b3, b4, b5, b6 float64
	for i := range out {
		white := rand.NormFloat64()
		b0 = 0.99886*b0 + white*0.0555179
		b1 = 0.99332*b1 + white*0.0750759
		b2 = 0.96900*b2 + white*0.1538520
		b3 = 0.86650*b3 + white*0.3104856
		b4 = 0.55000*b4 + white*0.5329522
		b5 = -0.7616*b5 - white*0.0168980
		out[i] = (b0 + b1 + b2 + b3 + b4 + b5 + b6 + white*0.5362) * 0.11
		b6 = white * 0.115926
	}
}

// brownNoise integrates white noise with a small leak to stay bounded.
func brownNoise(freq float64, out Signal) {
	last := 0.0
	for i := range out {
		white := rand.NormFloat64()
		last = (last + 0.02*white) / 1.02
		out[i] = last * 3.5
	}
}
