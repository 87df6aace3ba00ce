package sequencer

// Mode is an objective's sprint generation mode.
type Mode string

const (
	ModeDaily     Mode = "DAILY"
	ModeWeekly    Mode = "WEEKLY"
	ModeMilestone Mode = "MILESTONE"
	ModeManual    Mode = "MANUAL"
)

// ModeConfig drives automatic generation for a Mode.
type ModeConfig struct {
	// GenerateOnCompletion generates the next sprint when one is completed.
	GenerateOnCompletion bool
	// LookaheadDays is how far ahead of completion the buffer reaches.
	LookaheadDays int
	// BatchSize caps sprints generated by one buffer pass.
	BatchSize int
	// MinDaysBuffer triggers a top-up when the buffer falls below it.
	MinDaysBuffer int
}

var modes = map[Mode]ModeConfig{
	ModeDaily:     {GenerateOnCompletion: true, LookaheadDays: 3, BatchSize: 3, MinDaysBuffer: 1},
	ModeWeekly:    {GenerateOnCompletion: false, LookaheadDays: 7, BatchSize: 1, MinDaysBuffer: 0},
	ModeMilestone: {GenerateOnCompletion: false, LookaheadDays: 1, BatchSize: 1, MinDaysBuffer: 0},
	ModeManual:    {GenerateOnCompletion: false, LookaheadDays: 0, BatchSize: 1, MinDaysBuffer: 0},
}

// ConfigFor returns the configuration of mode. Unknown modes behave as MANUAL.
func ConfigFor(mode string) ModeConfig {
	if cfg, ok := modes[Mode(mode)]; ok {
		return cfg
	}
	return modes[ModeManual]
}

// ValidMode reports whether mode is one of the known modes.
func ValidMode(mode string) bool {
	_, ok := modes[Mode(mode)]
	return ok
}
