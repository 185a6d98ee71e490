package audio

import (
	"log"
)

// mixSignals returns the mean of layers, which must all have the same length.
func mixSignals(layers []Signal) Signal {
	if len(layers) == 0 {
		return nil
	}
	out := make(Signal, len(layers[0]))
	for _, layer := range layers {
		if len(layer) != len(out) {
			log.Panicf("layer length mismatch: %v != %v", len(layer), len(out))
		}
		for i, v := range layer {
			out[i] += v
		}
	}
	n := float64(len(layers))
	for i := range out {
		out[i] /= n
	}
	return out
}

// renderNote builds the mixed signal of one note from a snapshot of the
// oscillator layers.
func renderNote(oscs []oscParams, freq float64, duration float64) (Signal, error) {
	layers := make([]Signal, len(oscs))
	for i := range oscs {
		layer, err := oscs[i].generate(freq, duration)
		if err != nil {
			return nil, err
		}
		layers[i] = layer
	}
	return mixSignals(layers), nil
}
