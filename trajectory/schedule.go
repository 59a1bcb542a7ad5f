// Package trajectory generates the time parameterized targets a shot is made
// of: the Cartesian path the cue follows around the board and the angular
// profile of the striking joint. Generators are pure functions of time built
// once per shot.
package trajectory

import (
	"github.com/pkg/errors"
)

// Schedule fixes the boundaries between the segments of the cue's path, in
// seconds from the start of tracking. Segments are half open on the right, so
// each boundary belongs to the segment it starts. Times past StrikeEnd map to
// the home target.
type Schedule struct {
	// ApproachEnd closes the linear blend from home to the cue staging point.
	ApproachEnd float64 `json:"approach_end_s"`
	// GatherEnd closes the arc from the staging point to the shot position.
	GatherEnd float64 `json:"gather_end_s"`
	// LineUpEnd closes the hold at the shot position and opens the strike window.
	LineUpEnd float64 `json:"line_up_end_s"`
	// StrikeEnd closes the strike window.
	StrikeEnd float64 `json:"strike_end_s"`
}

// DefaultSchedule returns the boundaries used in match play.
func DefaultSchedule() Schedule {
	return Schedule{
		ApproachEnd: 4,
		GatherEnd:   8,
		LineUpEnd:   12,
		StrikeEnd:   13,
	}
}

// Validate checks that the boundaries are positive and strictly ordered.
func (s Schedule) Validate() error {
	if !(s.ApproachEnd > 0 && s.GatherEnd > s.ApproachEnd && s.LineUpEnd > s.GatherEnd && s.StrikeEnd > s.LineUpEnd) {
		return errors.Errorf(
			"segment boundaries must be positive and strictly increasing, got %f, %f, %f, %f",
			s.ApproachEnd, s.GatherEnd, s.LineUpEnd, s.StrikeEnd,
		)
	}
	return nil
}

// InStrikeWindow reports whether t falls in the strike window segment.
func (s Schedule) InStrikeWindow(t float64) bool {
	return inSegment(t, s.LineUpEnd, s.StrikeEnd)
}

// StrikeWindow returns the length of the strike window segment.
func (s Schedule) StrikeWindow() float64 {
	return s.StrikeEnd - s.LineUpEnd
}

func inSegment(t, lower, upper float64) bool {
	return t >= lower && t < upper
}
