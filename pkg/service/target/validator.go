package target

import (
	"context"
	"errors"

	slacksdk "github.com/slack-go/slack"

	slacksvc "github.com/askloop/askloop/pkg/service/slack"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ValidationStatus classifies whether a configured target can actually
// receive notifications right now.
type ValidationStatus string

const (
	StatusOK           ValidationStatus = "ok"
	StatusNotFound     ValidationStatus = "not_found"
	StatusArchived     ValidationStatus = "archived"
	StatusNoPermission ValidationStatus = "no_permission"
	StatusIsBot        ValidationStatus = "is_bot"
	StatusDeactivated  ValidationStatus = "deactivated"
)

// Validate checks a target against the live Slack directory. A non-OK status
// is a configuration finding, not an error; the error return is reserved for
// API failures where the state could not be determined.
func Validate(ctx context.Context, svc slacksvc.Service, t *model.EscalationTarget) (ValidationStatus, error) {
	switch t.Type {
	case types.TargetTypeUser:
		return validateUser(ctx, svc, t.TargetID)
	case types.TargetTypeUserGroup:
		return validateUserGroup(ctx, svc, t.TargetID)
	case types.TargetTypeChannel:
		return validateChannel(ctx, svc, types.ChannelID(t.TargetID))
	default:
		return "", goerr.New("unknown target type", goerr.V("type", t.Type))
	}
}

func validateUser(ctx context.Context, svc slacksvc.Service, id types.TargetID) (ValidationStatus, error) {
	user, err := svc.LookupUser(ctx, types.SlackUserID(id))
	if err != nil {
		if apiErrIs(err, "user_not_found") {
			return StatusNotFound, nil
		}
		return "", err
	}
	if user.Deleted {
		return StatusDeactivated, nil
	}
	if user.IsBot {
		return StatusIsBot, nil
	}
	return StatusOK, nil
}

func validateUserGroup(ctx context.Context, svc slacksvc.Service, id types.TargetID) (ValidationStatus, error) {
	group, err := svc.LookupUserGroup(ctx, id)
	if err != nil {
		if apiErrIs(err, "missing_scope") {
			return StatusNoPermission, nil
		}
		return "", err
	}
	if group == nil {
		return StatusNotFound, nil
	}
	if !group.DeletedAt.IsZero() {
		return StatusDeactivated, nil
	}
	return StatusOK, nil
}

func validateChannel(ctx context.Context, svc slacksvc.Service, id types.ChannelID) (ValidationStatus, error) {
	ch, err := svc.LookupChannel(ctx, id)
	if err != nil {
		if apiErrIs(err, "channel_not_found") {
			return StatusNotFound, nil
		}
		return "", err
	}
	if ch.IsArchived {
		return StatusArchived, nil
	}
	if !ch.IsMember {
		return StatusNoPermission, nil
	}
	return StatusOK, nil
}

// apiErrIs matches a Slack Web API error code anywhere in the wrap chain
func apiErrIs(err error, code string) bool {
	var apiErr slacksdk.SlackErrorResponse
	if errors.As(err, &apiErr) {
		return apiErr.Err == code
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if e.Error() == code {
			return true
		}
	}
	return false
}
