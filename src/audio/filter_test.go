package audio

import (
	"errors"
	"math"
	"testing"
)

func rms(sig Signal) float64 {
	sum := 0.0
	for _, v := range sig {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(sig)))
}

func applyFilter(t *testing.T, p filterParams, in Signal) Signal {
	t.Helper()
	out, err := p.apply(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectEqual(t, len(out), len(in))
	return out
}

func TestButterworthQs(t *testing.T) {
	qs := butterworthQs(2)
	expectEqual(t, len(qs), 1)
	expectNearlyEqual(t, qs[0], 1/math.Sqrt2)

	qs = butterworthQs(4)
	expectEqual(t, len(qs), 2)
	expectNearlyEqual(t, qs[0], 0.5412)
	expectNearlyEqual(t, qs[1], 1.3066)

	qs = butterworthQs(3)
	expectEqual(t, len(qs), 1)
	expectNearlyEqual(t, qs[0], 1)

	expectEqual(t, len(butterworthQs(1)), 0)
}

func TestLowpassPassesDC(t *testing.T) {
	for order := 1; order <= maxFilterOrder; order++ {
		out := applyFilter(t, filterParams{kind: filterLowpass, cutoff: 1000, order: order}, ones(4410))
		expectNearlyEqual(t, out[len(out)-1], 1)
	}
}

func TestHighpassBlocksDC(t *testing.T) {
	for order := 1; order <= maxFilterOrder; order++ {
		out := applyFilter(t, filterParams{kind: filterHighpass, cutoff: 1000, order: order}, ones(4410))
		expectNearlyEqual(t, out[len(out)-1], 0)
	}
}

func TestLowpassAttenuatesAboveCutoff(t *testing.T) {
	in := generateWave(waveSine, 8000, 0.5)
	second := applyFilter(t, filterParams{kind: filterLowpass, cutoff: 1000, order: 2}, in)
	fourth := applyFilter(t, filterParams{kind: filterLowpass, cutoff: 1000, order: 4}, in)
	tail := len(in) / 2
	// 3 octaves above cutoff: about -36dB and -72dB
	if r := rms(second[tail:]) / rms(in[tail:]); r > 0.03 {
		t.Errorf("order 2: expected strong attenuation, but gain = %v", r)
	}
	if r := rms(fourth[tail:]) / rms(in[tail:]); r > 0.001 {
		t.Errorf("order 4: expected stronger attenuation, but gain = %v", r)
	}
}

func TestLowpassIsHalfPowerAtCutoff(t *testing.T) {
	in := generateWave(waveSine, 1000, 0.5)
	for _, order := range []int{1, 2, 3, 4} {
		out := applyFilter(t, filterParams{kind: filterLowpass, cutoff: 1000, order: order}, in)
		tail := len(in) / 2
		gain := rms(out[tail:]) / rms(in[tail:])
		if math.Abs(gain-1/math.Sqrt2) > 0.01 {
			t.Errorf("order %v: expected -3dB at cutoff, but gain = %v", order, gain)
		}
	}
}

func TestBandpassAndNotchAtCentre(t *testing.T) {
	in := generateWave(waveSine, 1000, 0.5)
	tail := len(in) / 2
	band := applyFilter(t, filterParams{kind: filterBandpass, cutoff: 1000, order: 2}, in)
	if gain := rms(band[tail:]) / rms(in[tail:]); math.Abs(gain-1) > 0.01 {
		t.Errorf("bandpass: expected unity gain at centre, but gain = %v", gain)
	}
	notch := applyFilter(t, filterParams{kind: filterNotch, cutoff: 1000, order: 2}, in)
	if gain := rms(notch[tail:]) / rms(in[tail:]); gain > 0.01 {
		t.Errorf("notch: expected silence at centre, but gain = %v", gain)
	}
	far := generateWave(waveSine, 100, 0.5)
	notchFar := applyFilter(t, filterParams{kind: filterNotch, cutoff: 1000, order: 2}, far)
	if gain := rms(notchFar[tail:]) / rms(far[tail:]); gain < 0.95 {
		t.Errorf("notch: expected 100Hz to pass, but gain = %v", gain)
	}
}

func TestHighCutoffBelowNyquistIsStable(t *testing.T) {
	in := generateWave(waveSawtooth, 440, 1)
	for kind := 0; kind < numFilterKinds; kind++ {
		out := applyFilter(t, filterParams{kind: kind, cutoff: 20000, order: 2}, in)
		for i, v := range out {
			if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 10 {
				t.Fatalf("%s: unstable at sample %v: %v", filterKindToString(kind), i, v)
			}
		}
	}
}

func TestCutoffAtNyquistIsRejected(t *testing.T) {
	for _, cutoff := range []float64{22050, 30000} {
		p := filterParams{kind: filterLowpass, cutoff: cutoff, order: 2}
		if _, err := p.apply(ones(10)); !errors.Is(err, ErrCutoffAboveNyquist) {
			t.Errorf("cutoff %v: expected ErrCutoffAboveNyquist, but got: %v", cutoff, err)
		}
		if _, err := designFilter(p); !errors.Is(err, ErrCutoffAboveNyquist) {
			t.Errorf("cutoff %v: expected ErrCutoffAboveNyquist, but got: %v", cutoff, err)
		}
	}
}

func TestFilterSetValidates(t *testing.T) {
	f := newFilterParams()
	expectNoError(t, f.set("kind", "highpass"))
	expectNoError(t, f.set("cutoff", "20000"))
	expectNoError(t, f.set("order", "4"))
	expectEqual(t, f, filterParams{kind: filterHighpass, cutoff: 20000, order: 4})

	if err := f.set("cutoff", "22050"); !errors.Is(err, ErrCutoffAboveNyquist) {
		t.Errorf("expected ErrCutoffAboveNyquist, but got: %v", err)
	}
	for _, kv := range [][2]string{{"cutoff", "0"}, {"cutoff", "x"}, {"order", "0"}, {"order", "9"}, {"order", "1.5"}, {"q", "1"}} {
		if err := f.set(kv[0], kv[1]); !errors.Is(err, ErrInvalidParam) {
			t.Errorf("%v=%v: expected ErrInvalidParam, but got: %v", kv[0], kv[1], err)
		}
	}
	if err := f.set("kind", "allpass"); !errors.Is(err, ErrUnknownFilterKind) {
		t.Errorf("expected ErrUnknownFilterKind, but got: %v", err)
	}
	expectEqual(t, f, filterParams{kind: filterHighpass, cutoff: 20000, order: 4})
}

func TestFrequencyResponse(t *testing.T) {
	f := newFilterParams()
	h, err := f.frequencyResponse()
	expectNoError(t, err)
	expectEqual(t, len(h), fftSize/2)
	expectNearlyEqual(t, h[0], 1)
	if h[len(h)-1] > 0.01 {
		t.Errorf("expected lowpass to reject nyquist, but got: %v", h[len(h)-1])
	}
}
