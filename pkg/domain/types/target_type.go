package types

import "fmt"

// TargetType is the kind of notification destination an escalation target
// points at. The set is closed; the escalation engine switches exhaustively
// on it, so adding a type is a compile-time-visible change.
type TargetType string

const (
	TargetTypeUser      TargetType = "user"
	TargetTypeUserGroup TargetType = "user_group"
	TargetTypeChannel   TargetType = "channel"
)

// AllTargetTypes returns all valid target types
func AllTargetTypes() []TargetType {
	return []TargetType{
		TargetTypeUser,
		TargetTypeUserGroup,
		TargetTypeChannel,
	}
}

// IsValid checks if the target type is valid
func (t TargetType) IsValid() bool {
	switch t {
	case TargetTypeUser,
		TargetTypeUserGroup,
		TargetTypeChannel:
		return true
	default:
		return false
	}
}

// String returns the string representation of the target type
func (t TargetType) String() string {
	return string(t)
}

// ParseTargetType parses a string into a TargetType
func ParseTargetType(s string) (TargetType, error) {
	t := TargetType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid target type: %s", s)
	}
	return t, nil
}
