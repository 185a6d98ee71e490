package audio

import (
	"log"
	"math"
	"math/cmplx"
)

var spectrum = newFFT(fftSize)

// ----- FFT ----- //

// radix-2, forward only
type fft struct {
	bitReverseTable []int
	wTable          []complex128
}

func newFFT(length int) *fft {
	if length <= 0 || length&(length-1) != 0 {
		log.Panicf("fft length should be a power of 2: %v", length)
	}
	return &fft{
		bitReverseTable: makeBitReverseTable(length),
		wTable:          makeWTable(length),
	}
}
func makeBitReverseTable(n int) []int {
	array := make([]int, n)
	for i := 0; i < n; i++ {
		array[i] = bitReverse(i, n)
	}
	return array
}
func bitReverse(k, n int) int {
	m := 0
	for ; n > 1; n = n >> 1 {
		m = m<<1 + k&1
		k = k >> 1
	}
	return m
}
func makeWTable(n int) []complex128 {
	array := make([]complex128, n)
	w := -2.0 * math.Pi / float64(n)
	for i := 0; i < n; i++ {
		array[i] = cmplx.Exp(complex(0, w*float64(i)))
	}
	return array
}

func (f *fft) calc(x []complex128) {
	n := len(x)
	if n != len(f.bitReverseTable) {
		log.Panicf("length should be %v", len(f.bitReverseTable))
	}
	for i := 0; i < n; i++ {
		rev := f.bitReverseTable[i]
		if i < rev {
			x[i], x[rev] = x[rev], x[i]
		}
	}
	for m := 1; m < n; m = m << 1 {
		step := m << 1
		for k := 0; k < m; k++ {
			w := f.wTable[n/step*k]
			for i := k; i < n; i += step {
				j := i + m
				tmp := x[j] * w
				x[j] = x[i] - tmp
				x[i] = x[i] + tmp
			}
		}
	}
}

func (f *fft) calcComplex(x []float64) []complex128 {
	cx := make([]complex128, len(x))
	for i, v := range x {
		cx[i] = complex(v, 0)
	}
	f.calc(cx)
	return cx
}

// calcReal replaces x with the real part of its transform.
func (f *fft) calcReal(x []float64) {
	for i, c := range f.calcComplex(x) {
		x[i] = real(c)
	}
}

// calcAbs replaces x with the magnitude of its transform.
func (f *fft) calcAbs(x []float64) {
	for i, c := range f.calcComplex(x) {
		x[i] = cmplx.Abs(c)
	}
}
