package types

import "fmt"

// DetectionMode governs how a thread reply affects a tracked question:
// whether it resolves the question, merely pauses escalation, or has no
// effect absent an explicit acknowledgment reaction.
type DetectionMode string

const (
	// DetectionModeEmojiOnly ignores thread replies; only an explicit
	// acknowledgment reaction resolves a question.
	DetectionModeEmojiOnly DetectionMode = "emoji_only"

	// DetectionModeThreadAuto marks a question answered as soon as a
	// non-self thread reply is observed.
	DetectionModeThreadAuto DetectionMode = "thread_auto"

	// DetectionModeHybrid pauses escalation on a thread reply but keeps the
	// question unanswered until an explicit acknowledgment.
	DetectionModeHybrid DetectionMode = "hybrid"
)

// AllDetectionModes returns all valid detection modes
func AllDetectionModes() []DetectionMode {
	return []DetectionMode{
		DetectionModeEmojiOnly,
		DetectionModeThreadAuto,
		DetectionModeHybrid,
	}
}

// IsValid checks if the detection mode is valid
func (m DetectionMode) IsValid() bool {
	switch m {
	case DetectionModeEmojiOnly,
		DetectionModeThreadAuto,
		DetectionModeHybrid:
		return true
	default:
		return false
	}
}

// Normalize returns the mode, treating empty as hybrid for backward compatibility.
func (m DetectionMode) Normalize() DetectionMode {
	if m == "" {
		return DetectionModeHybrid
	}
	return m
}

// String returns the string representation of the detection mode
func (m DetectionMode) String() string {
	return string(m)
}

// ParseDetectionMode parses a string into a DetectionMode
func ParseDetectionMode(s string) (DetectionMode, error) {
	mode := DetectionMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid detection mode: %s", s)
	}
	return mode, nil
}
