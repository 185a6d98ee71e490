package audio

import (
	"fmt"
	"math"
	"strconv"
)

// ----- LFO Params ----- //

type lfoParams struct {
	wave int
	rate float64 // Hz
}

type lfoJSON struct {
	Wave string  `json:"wave"`
	Rate float64 `json:"rate"`
}

func newLfoParams() lfoParams {
	return lfoParams{
		wave: waveSine,
		rate: 1,
	}
}

func lfoParamsFromJSON(j *lfoJSON) (lfoParams, error) {
	wave, err := waveKindFromString(j.Wave)
	if err != nil {
		return lfoParams{}, err
	}
	next := lfoParams{wave: wave, rate: j.Rate}
	if err := next.validate(); err != nil {
		return lfoParams{}, err
	}
	return next, nil
}
func (l *lfoParams) toJSON() *lfoJSON {
	return &lfoJSON{
		Wave: waveKindToString(l.wave),
		Rate: l.rate,
	}
}

func (l *lfoParams) validate() error {
	if !(l.rate > 0) || math.IsInf(l.rate, 0) {
		return fmt.Errorf("%w: lfo rate %v", ErrInvalidParam, l.rate)
	}
	return nil
}

func (l *lfoParams) set(key string, value string) error {
	switch key {
	case "wave":
		wave, err := waveKindFromString(value)
		if err != nil {
			return err
		}
		l.wave = wave
	case "rate":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParam, err)
		}
		next := lfoParams{wave: l.wave, rate: rate}
		if err := next.validate(); err != nil {
			return err
		}
		l.rate = rate
	default:
		return fmt.Errorf("%w: lfo key %q", ErrInvalidParam, key)
	}
	return nil
}

// ----- LFO ----- //

// envelope returns the modulation curve for n samples. Only a sine LFO
// modulates; every other wave leaves the signal untouched.
func (l *lfoParams) envelope(n int) Signal {
	env := make(Signal, n)
	switch l.wave {
	case waveSine:
		for i := range env {
			env[i] = math.Sin(2.0 * math.Pi * l.rate * float64(i) / sampleRate)
		}
	default:
		for i := range env {
			env[i] = 1.0
		}
	}
	return env
}

func (l *lfoParams) modulate(in Signal) Signal {
	env := l.envelope(len(in))
	out := make(Signal, len(in))
	for i, v := range in {
		out[i] = v * env[i]
	}
	return out
}
