package types

// Escalation levels. A question starts at LevelNone and advances one tier per
// sweep once its dwell time at the current tier exceeds the configured
// threshold. LevelPaused is terminal for scheduling but not a resolution
// outcome: the question stays unanswered for audit purposes.
const (
	LevelNone   = 0
	LevelFirst  = 1
	LevelSecond = 2
	LevelFinal  = 3

	// LevelPaused is a sentinel well outside the ladder so legacy data with
	// extra tiers never collides with it.
	LevelPaused = 99
)

// IsEscalationLevel reports whether level is a real ladder tier (1..3)
func IsEscalationLevel(level int) bool {
	return level >= LevelFirst && level <= LevelFinal
}
