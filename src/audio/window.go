package audio

import (
	"math"
)

func han(x float64) float64 {
	return 0.5 - 0.5*math.Cos(2.0*math.Pi*x)
}

// applyWindow multiplies data by window evaluated at i/n.
func applyWindow(data []float64, window func(float64) float64) {
	n := len(data)
	for i := 0; i < n; i++ {
		data[i] *= window(float64(i) / float64(n))
	}
}
