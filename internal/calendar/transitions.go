package calendar

import "time"

// TransitionLag is the look-back, in calendar days, used for vacation
// transition flags.
const TransitionLag = 7

// Transition flags for one date.
type Transition struct {
	FirstWeek bool
	WeekAfter bool
}

// Transitions compares the flag on t with the flag TransitionLag days earlier:
// first week means on now but off a week ago, week after means off now but on
// a week ago. It is the single definition used by both the training table and
// single-date prediction; flagAt supplies the vacation flag for any date.
func Transitions(flagAt func(time.Time) bool, t time.Time) Transition {
	now := flagAt(t)
	prior := flagAt(t.AddDate(0, 0, -TransitionLag))
	return Transition{
		FirstWeek: now && !prior,
		WeekAfter: !now && prior,
	}
}
