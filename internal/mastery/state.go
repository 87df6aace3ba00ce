package mastery

// Status is a skill's position in the mastery lifecycle.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusDeveloping Status = "developing"
	StatusProficient Status = "proficient"
	StatusMastered   Status = "mastered"
)

// Lower bounds of each status band on the 0-100 level scale.
const (
	DevelopingThreshold = 25.0
	ProficientThreshold = 60.0
	MasteredThreshold   = 85.0
)

// Fold weights: the new level keeps 70% of history and takes 30% of the
// observed score.
const (
	HistoryWeight  = 0.7
	ObservedWeight = 0.3
)

// DefaultHysteresisBand is how far below a status band's lower bound the
// level must fall before that status is lost.
const DefaultHysteresisBand = 5.0

// StatusFor maps a level to its status band, ignoring hysteresis.
func StatusFor(level float64) Status {
	switch {
	case level >= MasteredThreshold:
		return StatusMastered
	case level >= ProficientThreshold:
		return StatusProficient
	case level >= DevelopingThreshold:
		return StatusDeveloping
	default:
		return StatusNotStarted
	}
}

// lowerBound is the level at which s begins.
func (s Status) lowerBound() float64 {
	switch s {
	case StatusMastered:
		return MasteredThreshold
	case StatusProficient:
		return ProficientThreshold
	case StatusDeveloping:
		return DevelopingThreshold
	default:
		return 0
	}
}

func (s Status) rank() int {
	switch s {
	case StatusMastered:
		return 3
	case StatusProficient:
		return 2
	case StatusDeveloping:
		return 1
	default:
		return 0
	}
}

// Update reports the effect of one piece of evidence on a skill.
type Update struct {
	UserID          string
	SkillID         string
	PreviousLevel   float64
	NewLevel        float64
	PreviousStatus  Status
	NewStatus       Status
	StatusChanged   bool
	MasteredNow     bool
	FirstAssessment bool
}

// Declining reports whether this update lowered the level.
func (u Update) Declining() bool {
	return u.NewLevel < u.PreviousLevel
}
