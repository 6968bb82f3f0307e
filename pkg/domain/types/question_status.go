package types

import "fmt"

// QuestionStatus represents the lifecycle status of a question
type QuestionStatus string

const (
	QuestionStatusUnanswered QuestionStatus = "unanswered"
	QuestionStatusAnswered   QuestionStatus = "answered"
	QuestionStatusDismissed  QuestionStatus = "dismissed"
)

// AllQuestionStatuses returns all valid question statuses
func AllQuestionStatuses() []QuestionStatus {
	return []QuestionStatus{
		QuestionStatusUnanswered,
		QuestionStatusAnswered,
		QuestionStatusDismissed,
	}
}

// IsValid checks if the question status is valid
func (s QuestionStatus) IsValid() bool {
	switch s {
	case QuestionStatusUnanswered,
		QuestionStatusAnswered,
		QuestionStatusDismissed:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as unanswered for backward compatibility.
func (s QuestionStatus) Normalize() QuestionStatus {
	if s == "" {
		return QuestionStatusUnanswered
	}
	return s
}

// String returns the string representation of the question status
func (s QuestionStatus) String() string {
	return string(s)
}

// ParseQuestionStatus parses a string into a QuestionStatus
func ParseQuestionStatus(s string) (QuestionStatus, error) {
	status := QuestionStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid question status: %s", s)
	}
	return status, nil
}
