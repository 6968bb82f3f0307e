package memory

import (
	"github.com/askloop/askloop/pkg/domain/interfaces"
)

// Memory is the in-memory repository backend used for development and tests.
// All sub-repositories guard their maps with their own mutex and hand out
// deep copies, so callers can never mutate stored state in place.
type Memory struct {
	workspace  *workspaceRepository
	channel    *channelRepository
	question   *questionRepository
	target     *targetRepository
	escalation *escalationRepository
	auth       *authStore
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		workspace:  newWorkspaceRepository(),
		channel:    newChannelRepository(),
		question:   newQuestionRepository(),
		target:     newTargetRepository(),
		escalation: newEscalationRepository(),
		auth:       newAuthStore(),
	}
}

func (m *Memory) Workspace() interfaces.WorkspaceRepository {
	return m.workspace
}

func (m *Memory) Channel() interfaces.ChannelRepository {
	return m.channel
}

func (m *Memory) Question() interfaces.QuestionRepository {
	return m.question
}

func (m *Memory) Target() interfaces.TargetRepository {
	return m.target
}

func (m *Memory) Escalation() interfaces.EscalationRepository {
	return m.escalation
}

func (m *Memory) Close() error {
	return nil
}
