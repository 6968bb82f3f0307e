package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// WorkspaceID is the external Slack team ID (e.g. "T0123456789")
type WorkspaceID string

// Validate checks if the WorkspaceID is valid
func (x WorkspaceID) Validate() error {
	if x == "" {
		return goerr.New("workspace ID cannot be empty")
	}
	return nil
}

// String returns the string representation of WorkspaceID
func (x WorkspaceID) String() string {
	return string(x)
}

// ChannelID is the external Slack channel ID (e.g. "C0123456789")
type ChannelID string

// Validate checks if the ChannelID is valid
func (x ChannelID) Validate() error {
	if x == "" {
		return goerr.New("channel ID cannot be empty")
	}
	return nil
}

// String returns the string representation of ChannelID
func (x ChannelID) String() string {
	return string(x)
}

// SlackUserID is an external Slack user ID (e.g. "U0123456789")
type SlackUserID string

// String returns the string representation of SlackUserID
func (x SlackUserID) String() string {
	return string(x)
}

// MessageTS is a Slack message timestamp, which identifies a message within a
// channel (e.g. "1700000000.000100")
type MessageTS string

// Validate checks if the MessageTS is valid
func (x MessageTS) Validate() error {
	if x == "" {
		return goerr.New("message timestamp cannot be empty")
	}
	return nil
}

// String returns the string representation of MessageTS
func (x MessageTS) String() string {
	return string(x)
}

// Time converts the timestamp to wall-clock time. Returns the zero time when
// the value is malformed.
func (x MessageTS) Time() time.Time {
	sec, frac, _ := strings.Cut(string(x), ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var ns int64
	if frac != "" {
		f, err := strconv.ParseFloat("0."+frac, 64)
		if err == nil {
			ns = int64(f * float64(time.Second))
		}
	}
	return time.Unix(s, ns).UTC()
}

// QuestionID identifies a tracked question. It is derived from the workspace,
// channel, and message timestamp so the same Slack message always maps to the
// same document, which is what makes ingestion idempotent.
type QuestionID string

// NewQuestionID builds the canonical question ID for a message
func NewQuestionID(workspaceID WorkspaceID, channelID ChannelID, ts MessageTS) QuestionID {
	return QuestionID(fmt.Sprintf("%s:%s:%s", workspaceID, channelID, ts))
}

// Validate checks if the QuestionID is valid
func (x QuestionID) Validate() error {
	if x == "" {
		return goerr.New("question ID cannot be empty")
	}
	return nil
}

// String returns the string representation of QuestionID
func (x QuestionID) String() string {
	return string(x)
}

// TargetID is the external identifier of a notification target. Its meaning
// depends on the target type: user ID, user group ID, or channel ID.
type TargetID string

// String returns the string representation of TargetID
func (x TargetID) String() string {
	return string(x)
}

// EscalationID identifies one row of the append-only escalation log
type EscalationID string

// String returns the string representation of EscalationID
func (x EscalationID) String() string {
	return string(x)
}

// StateToken is a single-use OAuth state correlation token
type StateToken string

// Validate checks if the StateToken is valid
func (x StateToken) Validate() error {
	if x == "" {
		return goerr.New("state token cannot be empty")
	}
	return nil
}

// String returns the string representation of StateToken
func (x StateToken) String() string {
	return string(x)
}
