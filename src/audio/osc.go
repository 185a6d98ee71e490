package audio

import (
	"fmt"
)

// ----- OSC Params ----- //

type oscParams struct {
	enabled bool
	kind    int
	filter  filterParams
	lfo     lfoParams
}

type oscJSON struct {
	Enabled bool        `json:"enabled"`
	Kind    string      `json:"kind"`
	Filter  *filterJSON `json:"filter"`
	Lfo     *lfoJSON    `json:"lfo"`
}

func newOscParams() *oscParams {
	return &oscParams{
		enabled: true,
		kind:    waveSine,
		filter:  newFilterParams(),
		lfo:     newLfoParams(),
	}
}

func oscParamsFromJSON(j *oscJSON) (*oscParams, error) {
	kind, err := waveKindFromString(j.Kind)
	if err != nil {
		return nil, err
	}
	if j.Filter == nil || j.Lfo == nil {
		return nil, fmt.Errorf("%w: osc needs filter and lfo", ErrInvalidParam)
	}
	filter, err := filterParamsFromJSON(j.Filter)
	if err != nil {
		return nil, err
	}
	lfo, err := lfoParamsFromJSON(j.Lfo)
	if err != nil {
		return nil, err
	}
	return &oscParams{
		enabled: j.Enabled,
		kind:    kind,
		filter:  filter,
		lfo:     lfo,
	}, nil
}
func (o *oscParams) toJSON() *oscJSON {
	return &oscJSON{
		Enabled: o.enabled,
		Kind:    waveKindToString(o.kind),
		Filter:  o.filter.toJSON(),
		Lfo:     o.lfo.toJSON(),
	}
}

func (o *oscParams) set(key string, value string) error {
	switch key {
	case "enabled":
		switch value {
		case "true":
			o.enabled = true
		case "false":
			o.enabled = false
		default:
			return fmt.Errorf("%w: enabled %q", ErrInvalidParam, value)
		}
	case "kind":
		if value == "off" {
			o.enabled = false
			return nil
		}
		kind, err := waveKindFromString(value)
		if err != nil {
			return err
		}
		o.kind = kind
		o.enabled = true
	default:
		return fmt.Errorf("%w: osc key %q", ErrInvalidParam, key)
	}
	return nil
}

// ----- OSC ----- //

// generate runs wave -> lfo -> filter. A disabled oscillator still runs the
// chain on silence so every layer has the same length.
func (o *oscParams) generate(freq float64, duration float64) (Signal, error) {
	var wave Signal
	if o.enabled {
		wave = generateWave(o.kind, freq, duration)
	} else {
		wave = make(Signal, signalLength(duration))
	}
	wave = o.lfo.modulate(wave)
	return o.filter.apply(wave)
}
