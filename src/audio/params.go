package audio

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type params struct {
	oscParams []*oscParams
	release   float64 // ms
}

func newParams() *params {
	oscs := make([]*oscParams, numOscs)
	for i := range oscs {
		oscs[i] = newOscParams()
	}
	return &params{
		oscParams: oscs,
		release:   0,
	}
}

type paramsJSON struct {
	Oscs    []*oscJSON `json:"oscs"`
	Release float64    `json:"release"`
}

// applyJSON replaces every parameter or, on error, none of them.
func (p *params) applyJSON(data json.RawMessage) error {
	var j paramsJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParam, err)
	}
	if len(j.Oscs) != len(p.oscParams) {
		return fmt.Errorf("%w: expected %v oscs, got %v", ErrInvalidParam, len(p.oscParams), len(j.Oscs))
	}
	oscs := make([]*oscParams, len(j.Oscs))
	for i, oj := range j.Oscs {
		if oj == nil {
			return fmt.Errorf("%w: osc %v is null", ErrInvalidParam, i)
		}
		o, err := oscParamsFromJSON(oj)
		if err != nil {
			return fmt.Errorf("osc %v: %w", i, err)
		}
		oscs[i] = o
	}
	if err := validateRelease(j.Release); err != nil {
		return err
	}
	p.oscParams = oscs
	p.release = j.Release
	return nil
}
func (p *params) toJSON() json.RawMessage {
	oscJsons := make([]*oscJSON, len(p.oscParams))
	for i, oscParam := range p.oscParams {
		oscJsons[i] = oscParam.toJSON()
	}
	return toRawMessage(&paramsJSON{
		Oscs:    oscJsons,
		Release: p.release,
	})
}

// snapshotOscs copies the oscillator layers so a note can be rendered
// without holding the state lock.
func (p *params) snapshotOscs() []oscParams {
	oscs := make([]oscParams, len(p.oscParams))
	for i, o := range p.oscParams {
		oscs[i] = *o
	}
	return oscs
}

func (p *params) setRelease(value string) error {
	release, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParam, err)
	}
	if err := validateRelease(release); err != nil {
		return err
	}
	p.release = release
	return nil
}

func validateRelease(release float64) error {
	if release < 0 || math.IsNaN(release) || math.IsInf(release, 0) {
		return fmt.Errorf("%w: release %v", ErrInvalidParam, release)
	}
	return nil
}
