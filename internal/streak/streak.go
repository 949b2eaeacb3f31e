// Package streak holds the day-granularity streak rules. It has no storage
// and no clock; callers pass the dates in.
package streak

import "github.com/itsatony/talkingplants/internal/models"

// LapseDays is the gap in calendar days at which a streak is broken. Both
// Advance and Effective use it.
const LapseDays = 2

// Gap classifies two claim dates
type Gap int

const (
	// SameDay re-claims a day already counted
	SameDay Gap = iota
	// Consecutive extends the streak by one
	Consecutive
	// Broken is any other distance, including going backwards
	Broken
)

func (g Gap) String() string {
	switch g {
	case SameDay:
		return "same_day"
	case Consecutive:
		return "consecutive"
	default:
		return "broken"
	}
}

// Classify compares the stored last date with the date being claimed
func Classify(last, claimed models.Date) Gap {
	switch claimed.DaysSince(last) {
	case 0:
		return SameDay
	case 1:
		return Consecutive
	default:
		return Broken
	}
}

// State is the part of a streak record the rules read and write
type State struct {
	Current   int
	Longest   int
	LastDate  models.Date
	StartedAt models.Date
}

// Start is the state after the first ever claim
func Start(day models.Date) State {
	return State{Current: 1, Longest: 1, LastDate: day, StartedAt: day}
}

// Advance applies a claim for day to s and reports how the gap was classified
func Advance(s State, day models.Date) (State, Gap) {
	gap := Classify(s.LastDate, day)
	next := s
	switch gap {
	case SameDay:
	case Consecutive:
		next.Current = s.Current + 1
	case Broken:
		next.Current = 1
		next.StartedAt = day
	}
	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	next.LastDate = day
	return next, gap
}

// Effective is the streak shown on today. A streak whose last claim is
// LapseDays or more in the past reads as 0; the stored value is untouched.
func Effective(current int, last, today models.Date) int {
	if today.DaysSince(last) >= LapseDays {
		return 0
	}
	return current
}
