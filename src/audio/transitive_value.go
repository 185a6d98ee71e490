package audio

// ----- Transitive Value ----- //

// transitiveValue moves linearly towards a target, one sample per step.
type transitiveValue struct {
	ramping      bool
	duration     float64 // ms
	initialValue float64
	targetValue  float64
	value        float64
	pos          int
}

func (tv *transitiveValue) init(value float64) {
	tv.ramping = false
	tv.duration = 0
	tv.initialValue = value
	tv.targetValue = value
	tv.value = value
	tv.pos = 0
}

func (tv *transitiveValue) linear(duration float64, targetValue float64) {
	tv.initialValue = tv.value
	tv.targetValue = targetValue
	tv.pos = 0
	tv.duration = duration
	if duration <= 0 {
		tv.end()
		return
	}
	tv.ramping = true
}

// step advances one sample and reports whether the ramp has just ended.
func (tv *transitiveValue) step() bool {
	if !tv.ramping {
		return false
	}
	tv.pos++
	phaseTime := float64(tv.pos) * secPerSample * 1000 // ms
	if phaseTime >= tv.duration {
		tv.end()
		return true
	}
	t := phaseTime / tv.duration
	tv.value = t*tv.targetValue + (1-t)*tv.initialValue
	return false
}

func (tv *transitiveValue) end() {
	tv.ramping = false
	tv.value = tv.targetValue
	tv.pos = 0
}
