package core

// ActivenessHandler decides when an interface is allowed to be powered on.
// Activeness is defined by a list of [start, end) intervals in simulation
// seconds; an empty list means always active. A per-interface jitter offset
// shifts the whole schedule so that interfaces of one group do not flip
// state at the exact same instant.
type ActivenessHandler struct {
	clock     *SimClock
	intervals [][2]float64
}

// NewActivenessHandler builds a handler over the given active intervals.
func NewActivenessHandler(clock *SimClock, intervals [][2]float64) (*ActivenessHandler, error) {
	for _, iv := range intervals {
		if iv[1] < iv[0] {
			return nil, settingsErrorf("active interval end %v before start %v", iv[1], iv[0])
		}
	}
	return &ActivenessHandler{clock: clock, intervals: intervals}, nil
}

// IsActive reports whether the interface may be on at the current simulation
// time, with the interface's jitter added to every interval bound.
func (ah *ActivenessHandler) IsActive(jitter int) bool {
	if len(ah.intervals) == 0 {
		return true
	}
	t := ah.clock.Time()
	for _, iv := range ah.intervals {
		if t >= iv[0]+float64(jitter) && t < iv[1]+float64(jitter) {
			return true
		}
	}
	return false
}
