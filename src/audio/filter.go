package audio

import (
	"fmt"
	"math"
	"strconv"
)

// ----- Filter Kind ----- //

const (
	filterLowpass = iota
	filterHighpass
	filterBandpass
	filterNotch
	numFilterKinds
)

var filterKindNames = [numFilterKinds]string{
	filterLowpass:  "lowpass",
	filterHighpass: "highpass",
	filterBandpass: "bandpass",
	filterNotch:    "notch",
}

func filterKindFromString(s string) (int, error) {
	for kind, name := range filterKindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFilterKind, s)
}
func filterKindToString(kind int) string {
	if kind < 0 || kind >= numFilterKinds {
		return "none"
	}
	return filterKindNames[kind]
}

// ----- Filter Params ----- //

const (
	nyquist        = sampleRate / 2
	maxFilterOrder = 8
)

type filterParams struct {
	kind   int
	cutoff float64 // Hz, 0 < cutoff < nyquist
	order  int
}

type filterJSON struct {
	Kind   string  `json:"kind"`
	Cutoff float64 `json:"cutoff"`
	Order  int     `json:"order"`
}

func newFilterParams() filterParams {
	return filterParams{
		kind:   filterLowpass,
		cutoff: 1000,
		order:  2,
	}
}

func filterParamsFromJSON(j *filterJSON) (filterParams, error) {
	kind, err := filterKindFromString(j.Kind)
	if err != nil {
		return filterParams{}, err
	}
	next := filterParams{kind: kind, cutoff: j.Cutoff, order: j.Order}
	if err := next.validate(); err != nil {
		return filterParams{}, err
	}
	return next, nil
}
func (f *filterParams) toJSON() *filterJSON {
	return &filterJSON{
		Kind:   filterKindToString(f.kind),
		Cutoff: f.cutoff,
		Order:  f.order,
	}
}

func (f *filterParams) validate() error {
	if f.kind < 0 || f.kind >= numFilterKinds {
		return fmt.Errorf("%w: %d", ErrUnknownFilterKind, f.kind)
	}
	if !(f.cutoff > 0) {
		return fmt.Errorf("%w: cutoff %v", ErrInvalidParam, f.cutoff)
	}
	if f.cutoff >= nyquist {
		return fmt.Errorf("%w: %v >= %v", ErrCutoffAboveNyquist, f.cutoff, float64(nyquist))
	}
	if f.order < 1 || f.order > maxFilterOrder {
		return fmt.Errorf("%w: order %d", ErrInvalidParam, f.order)
	}
	return nil
}

func (f *filterParams) set(key string, value string) error {
	next := *f
	switch key {
	case "kind":
		kind, err := filterKindFromString(value)
		if err != nil {
			return err
		}
		next.kind = kind
	case "cutoff":
		cutoff, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParam, err)
		}
		next.cutoff = cutoff
	case "order":
		order, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParam, err)
		}
		next.order = int(order)
	default:
		return fmt.Errorf("%w: filter key %q", ErrInvalidParam, key)
	}
	if err := next.validate(); err != nil {
		return err
	}
	*f = next
	return nil
}

// ----- Filter ----- //

// biquad is one IIR section. a is feedforward, b is feedback (without the
// leading 1).
type biquad struct {
	a    []float64
	b    []float64
	past []float64
}

func newBiquad(a []float64, b []float64) *biquad {
	return &biquad{
		a:    a,
		b:    b,
		past: make([]float64, int(math.Max(float64(len(a)-1), float64(len(b))))),
	}
}

// step is a direct form II update.
func (s *biquad) step(in float64) float64 {
	for j := 0; j < len(s.b); j++ {
		in -= s.past[j] * s.b[j]
	}
	o := in * s.a[0]
	for j := 1; j < len(s.a); j++ {
		o += s.past[j-1] * s.a[j]
	}
	for j := len(s.past) - 2; j >= 0; j-- {
		s.past[j+1] = s.past[j]
	}
	if len(s.past) > 0 {
		s.past[0] = in
	}
	return o
}

type filterChain struct {
	sections []*biquad
}

// designFilter builds a digital filter for p. Lowpass and highpass are
// Butterworth of the given order; bandpass and notch are centred on the
// cutoff with max(1, order/2) sections.
func designFilter(p filterParams) (*filterChain, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	fc := p.cutoff / sampleRate
	if fc >= 0.5 {
		return nil, fmt.Errorf("%w: normalized %v", ErrCutoffAboveNyquist, fc*2)
	}
	chain := &filterChain{}
	switch p.kind {
	case filterLowpass, filterHighpass:
		highpass := p.kind == filterHighpass
		for _, q := range butterworthQs(p.order) {
			if highpass {
				chain.add(makeBiquadHighpassH(fc, q))
			} else {
				chain.add(makeBiquadLowpassH(fc, q))
			}
		}
		if p.order%2 == 1 {
			chain.add(makeFirstOrderH(fc, highpass))
		}
	case filterBandpass, filterNotch:
		sections := p.order / 2
		if sections < 1 {
			sections = 1
		}
		for i := 0; i < sections; i++ {
			if p.kind == filterBandpass {
				chain.add(makeBiquadBandpassH(fc, math.Sqrt2/2))
			} else {
				chain.add(makeBiquadNotchH(fc, math.Sqrt2/2))
			}
		}
	}
	return chain, nil
}

func (c *filterChain) add(a []float64, b []float64) {
	c.sections = append(c.sections, newBiquad(a, b))
}

func (c *filterChain) process(in Signal, out Signal) {
	for i, v := range in {
		for _, s := range c.sections {
			v = s.step(v)
		}
		out[i] = v
	}
}

// apply filters a fresh copy of in.
func (f *filterParams) apply(in Signal) (Signal, error) {
	chain, err := designFilter(*f)
	if err != nil {
		return nil, err
	}
	out := make(Signal, len(in))
	chain.process(in, out)
	return out, nil
}

// butterworthQs returns the Q of each second-order section of an analog
// Butterworth prototype of the given order.
func butterworthQs(order int) []float64 {
	qs := make([]float64, 0, order/2)
	for k := 1; k <= order/2; k++ {
		var angle float64
		if order%2 == 0 {
			angle = float64(2*k-1) * math.Pi / float64(2*order)
		} else {
			angle = float64(k) * math.Pi / float64(order)
		}
		qs = append(qs, 1/(2*math.Cos(angle)))
	}
	return qs
}

func makeFirstOrderH(fc float64, highpass bool) ([]float64, []float64) {
	// bilinear transform of 1/(s+1) with prewarping
	k := math.Tan(math.Pi * fc)
	b1 := (k - 1) / (k + 1)
	if highpass {
		return []float64{1 / (1 + k), -1 / (1 + k)}, []float64{b1}
	}
	return []float64{k / (1 + k), k / (1 + k)}, []float64{b1}
}

func makeBiquadLowpassH(fc float64, q float64) ([]float64, []float64) {
	// from RBJ's cookbook
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	b0 := (1 - math.Cos(w0)) / 2
	b1 := (1 - math.Cos(w0))
	b2 := (1 - math.Cos(w0)) / 2
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}

func makeBiquadHighpassH(fc float64, q float64) ([]float64, []float64) {
	// from RBJ's cookbook
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	b0 := (1 + math.Cos(w0)) / 2
	b1 := -(1 + math.Cos(w0))
	b2 := (1 + math.Cos(w0)) / 2
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}

func makeBiquadBandpassH(fc float64, q float64) ([]float64, []float64) {
	// from RBJ's cookbook (constant 0 dB peak gain)
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	b0 := alpha
	b1 := 0.0
	b2 := -alpha
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}

func makeBiquadNotchH(fc float64, q float64) ([]float64, []float64) {
	// from RBJ's cookbook
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	b0 := 1.0
	b1 := -2 * math.Cos(w0)
	b2 := 1.0
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}

// ----- Response ----- //

func (c *filterChain) impulseResponse(n int) Signal {
	in := make(Signal, n)
	out := make(Signal, n)
	in[0] = 1
	c.process(in, out)
	return out
}

// frequencyResponse returns the magnitude response from 0 to nyquist in
// fftSize/2 bins.
func (f *filterParams) frequencyResponse() ([]float64, error) {
	chain, err := designFilter(*f)
	if err != nil {
		return nil, err
	}
	h := chain.impulseResponse(fftSize)
	spectrum.calcAbs(h)
	return h[:fftSize/2], nil
}
