package escalation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/askloop/askloop/pkg/domain/interfaces"
	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/model/auth"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/repository/memory"
	"github.com/askloop/askloop/pkg/service/escalation"
	slacksvc "github.com/askloop/askloop/pkg/service/slack"
	"github.com/askloop/askloop/pkg/utils/retry"
)

const (
	wsID  = types.WorkspaceID("T_TEST")
	chID  = types.ChannelID("C_TEST")
	botID = types.SlackUserID("U_BOT")
)

// fakeSlack records outgoing notifications and serves canned thread replies.
// When listEntered/listRelease are set, ListThreadReplies signals entry and
// then blocks until released, letting tests hold a sweep mid-flight.
type fakeSlack struct {
	mu      sync.Mutex
	replies []slacksvc.Reply
	failDM  map[types.SlackUserID]error

	listEntered chan struct{}
	listRelease chan struct{}

	dms      []types.SlackUserID
	threads  []string
	channels []types.ChannelID
}

func (f *fakeSlack) BotUserID() types.SlackUserID { return botID }

func (f *fakeSlack) PostThreadReply(ctx context.Context, channelID types.ChannelID, threadTS types.MessageTS, text string) (types.MessageTS, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads = append(f.threads, text)
	return "1700000099.000001", nil
}

func (f *fakeSlack) PostChannelMessage(ctx context.Context, channelID types.ChannelID, text string) (types.MessageTS, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, channelID)
	return "1700000099.000002", nil
}

func (f *fakeSlack) PostDirectMessage(ctx context.Context, userID types.SlackUserID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failDM[userID]; err != nil {
		return err
	}
	f.dms = append(f.dms, userID)
	return nil
}

func (f *fakeSlack) ListThreadReplies(ctx context.Context, channelID types.ChannelID, threadTS, since types.MessageTS) ([]slacksvc.Reply, error) {
	if f.listEntered != nil {
		f.listEntered <- struct{}{}
		<-f.listRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]slacksvc.Reply(nil), f.replies...), nil
}

func (f *fakeSlack) Permalink(ctx context.Context, channelID types.ChannelID, ts types.MessageTS) (string, error) {
	return "https://example.slack.com/archives/" + channelID.String() + "/p" + ts.String(), nil
}

func (f *fakeSlack) LookupUser(ctx context.Context, userID types.SlackUserID) (*slacksvc.User, error) {
	return &slacksvc.User{ID: userID}, nil
}

func (f *fakeSlack) LookupUserGroup(ctx context.Context, groupID types.TargetID) (*slacksvc.UserGroup, error) {
	return &slacksvc.UserGroup{ID: groupID}, nil
}

func (f *fakeSlack) LookupChannel(ctx context.Context, channelID types.ChannelID) (*slacksvc.Channel, error) {
	return &slacksvc.Channel{ID: channelID, IsMember: true}, nil
}

type fixture struct {
	repo   interfaces.Repository
	slack  *fakeSlack
	engine *escalation.Engine
	now    time.Time
}

func newFixture(t *testing.T, mode types.DetectionMode) *fixture {
	t.Helper()
	ctx := context.Background()

	repo := memory.New()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	gt.NoError(t, repo.Workspace().Put(ctx, &model.Workspace{ID: wsID, Name: "acme", CreatedAt: now})).Required()
	cfg := model.NewWorkspaceConfig(wsID)
	cfg.FirstThreshold = 2
	cfg.SecondThreshold = 4
	cfg.DetectionMode = mode
	gt.NoError(t, repo.Workspace().PutConfig(ctx, cfg)).Required()
	gt.NoError(t, repo.PutInstallation(ctx, &auth.Installation{
		WorkspaceID: wsID,
		BotToken:    "xoxb-test",
		BotUserID:   botID,
		InstalledAt: now,
	})).Required()

	fake := &fakeSlack{failDM: map[types.SlackUserID]error{}}
	provider := slacksvc.NewProvider(repo, slacksvc.WithFactory(
		func(token string, botUserID types.SlackUserID) (slacksvc.Service, error) {
			return fake, nil
		}))

	f := &fixture{repo: repo, slack: fake, now: now}
	f.engine = escalation.New(repo, provider,
		escalation.WithClock(func() time.Time { return f.now }),
		escalation.WithRetryOptions(
			retry.WithMaxAttempts(2),
			retry.WithInitialDelay(time.Millisecond),
		),
	)
	return f
}

func (f *fixture) addQuestion(t *testing.T, ts types.MessageTS, askedAt time.Time) *model.Question {
	t.Helper()
	q := model.NewQuestion(wsID, chID, "U_ASKER", ts, "how do I rotate the key?", askedAt)
	created, err := f.repo.Question().Create(context.Background(), q)
	gt.NoError(t, err).Required()
	return created
}

func (f *fixture) addTarget(t *testing.T, id string, typ types.TargetType, targetID types.TargetID, level, priority int) {
	t.Helper()
	gt.NoError(t, f.repo.Target().Put(context.Background(), &model.EscalationTarget{
		ID:          id,
		WorkspaceID: wsID,
		Type:        typ,
		TargetID:    targetID,
		Level:       level,
		Priority:    priority,
		Active:      true,
		CreatedAt:   f.now,
	})).Required()
}

func (f *fixture) getQuestion(t *testing.T, id types.QuestionID) *model.Question {
	t.Helper()
	q, err := f.repo.Question().Get(context.Background(), wsID, id)
	gt.NoError(t, err).Required()
	return q
}

func TestSweepEscalates(t *testing.T) {
	t.Run("due question advances to level 1 and notifies targets", func(t *testing.T) {
		f := newFixture(t, types.DetectionModeHybrid)
		q := f.addQuestion(t, "1700000000.000100", f.now.Add(-3*time.Minute))
		f.addTarget(t, "t1", types.TargetTypeUser, "U_ONCALL", types.LevelFirst, 0)

		gt.NoError(t, f.engine.Sweep(context.Background())).Required()

		stored := f.getQuestion(t, q.ID)
		gt.Value(t, stored.Level).Equal(types.LevelFirst)
		gt.Value(t, stored.LastEscalatedAt).NotNil()
		gt.Array(t, f.slack.dms).Length(1)
		gt.Value(t, f.slack.dms[0]).Equal(types.SlackUserID("U_ONCALL"))

		rows, err := f.repo.Escalation().ListByQuestion(context.Background(), wsID, q.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, rows).Length(1)
		gt.Value(t, rows[0].Level).Equal(types.LevelFirst)
	})

	t.Run("question inside threshold is untouched", func(t *testing.T) {
		f := newFixture(t, types.DetectionModeHybrid)
		q := f.addQuestion(t, "1700000000.000100", f.now.Add(-1*time.Minute))

		gt.NoError(t, f.engine.Sweep(context.Background())).Required()

		gt.Value(t, f.getQuestion(t, q.ID).Level).Equal(types.LevelNone)
	})

	t.Run("level is monotonic across immediate sweeps", func(t *testing.T) {
		f := newFixture(t, types.DetectionModeHybrid)
		q := f.addQuestion(t, "1700000000.000100", f.now.Add(-3*time.Minute))

		gt.NoError(t, f.engine.Sweep(context.Background())).Required()
		gt.NoError(t, f.engine.Sweep(context.Background())).Required()
		gt.Value(t, f.getQuestion(t, q.ID).Level).Equal(types.LevelFirst)

		// After the level-1 dwell time passes, the next sweep advances again
		f.now = f.now.Add(4*time.Minute + time.Second)
		gt.NoError(t, f.engine.Sweep(context.Background())).Required()
		gt.Value(t, f.getQuestion(t, q.ID).Level).Equal(types.LevelSecond)
	})

	t.Run("advances even with no targets configured", func(t *testing.T) {
		f := newFixture(t, types.DetectionModeHybrid)
		q := f.addQuestion(t, "1700000000.000100", f.now.Add(-3*time.Minute))

		gt.NoError(t, f.engine.Sweep(context.Background())).Required()

		gt.Value(t, f.getQuestion(t, q.ID).Level).Equal(types.LevelFirst)
		rows, err := f.repo.Escalation().ListByQuestion(context.Background(), wsID, q.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, rows).Length(1)
		gt.Value(t, rows[0].Summary).Equal("no targets configured")
	})

	t.Run("one failing target does not block the others or the advance", func(t *testing.T) {
		f := newFixture(t, types.DetectionModeHybrid)
		q := f.addQuestion(t, "1700000000.000100", f.now.Add(-3*time.Minute))
		f.addTarget(t, "t1", types.TargetTypeUser, "U_BROKEN", types.LevelFirst, 0)
		f.addTarget(t, "t2", types.TargetTypeUser, "U_OK1", types.LevelFirst, 1)
		f.addTarget(t, "t3", types.TargetTypeUser, "U_OK2", types.LevelFirst, 2)
		f.slack.failDM["U_BROKEN"] = goerr.New("account_inactive")

		gt.NoError(t, f.engine.Sweep(context.Background())).Required()

		gt.Value(t, f.getQuestion(t, q.ID).Level).Equal(types.LevelFirst)
		gt.Array(t, f.slack.dms).Length(2)
	})

	t.Run("channel and group targets use their own delivery paths", func(t *testing.T) {
		f := newFixture(t, types.DetectionModeHybrid)
		f.addQuestion(t, "1700000000.000100", f.now.Add(-3*time.Minute))
		f.addTarget(t, "t1", types.TargetTypeUserGroup, "S_GROUP", types.LevelFirst, 0)
		f.addTarget(t, "t2", types.TargetTypeChannel, "C_ALERTS", types.LevelFirst, 1)

		gt.NoError(t, f.engine.Sweep(context.Background())).Required()

		gt.Array(t, f.slack.threads).Length(1)
		gt.Array(t, f.slack.channels).Length(1)
		gt.Value(t, f.slack.channels[0]).Equal(types.ChannelID("C_ALERTS"))
	})

	t.Run("workspace without installation is skipped", func(t *testing.T) {
		repo := memory.New()
		ctx := context.Background()
		now := time.Now().UTC()
		gt.NoError(t, repo.Workspace().Put(ctx, &model.Workspace{ID: "T_BARE", Name: "bare", CreatedAt: now})).Required()

		provider := slacksvc.NewProvider(repo)
		engine := escalation.New(repo, provider)

		gt.NoError(t, engine.Sweep(ctx))
	})
}

func TestSweepReplyModes(t *testing.T) {
	humanReply := slacksvc.Reply{UserID: "U_HELPER", TS: "1700000060.000100", Text: "restart it"}

	t.Run("thread_auto marks answered on human reply", func(t *testing.T) {
		f := newFixture(t, types.DetectionModeThreadAuto)
		q := f.addQuestion(t, "1700000000.000100", f.now.Add(-3*time.Minute))
		f.slack.replies = []slacksvc.Reply{humanReply}

		gt.NoError(t, f.engine.Sweep(context.Background())).Required()

		stored := f.getQuestion(t, q.ID)
		gt.Value(t, stored.Status).Equal(types.QuestionStatusAnswered)
		gt.Value(t, stored.AnsweredBy).Equal(types.SlackUserID("U_HELPER"))
		gt.Value(t, stored.Level).Equal(types.LevelNone)
	})

	t.Run("hybrid pauses but keeps status unanswered", func(t *testing.T) {
		f := newFixture(t, types.DetectionModeHybrid)
		q := f.addQuestion(t, "1700000000.000100", f.now.Add(-3*time.Minute))
		f.slack.replies = []slacksvc.Reply{humanReply}

		gt.NoError(t, f.engine.Sweep(context.Background())).Required()

		stored := f.getQuestion(t, q.ID)
		gt.Value(t, stored.Status).Equal(types.QuestionStatusUnanswered)
		gt.Value(t, stored.Level).Equal(types.LevelPaused)
	})

	t.Run("emoji_only ignores replies and escalates", func(t *testing.T) {
		f := newFixture(t, types.DetectionModeEmojiOnly)
		q := f.addQuestion(t, "1700000000.000100", f.now.Add(-3*time.Minute))
		f.slack.replies = []slacksvc.Reply{humanReply}

		gt.NoError(t, f.engine.Sweep(context.Background())).Required()

		stored := f.getQuestion(t, q.ID)
		gt.Value(t, stored.Status).Equal(types.QuestionStatusUnanswered)
		gt.Value(t, stored.Level).Equal(types.LevelFirst)
	})

	t.Run("bot and asker replies do not count", func(t *testing.T) {
		f := newFixture(t, types.DetectionModeThreadAuto)
		q := f.addQuestion(t, "1700000000.000100", f.now.Add(-3*time.Minute))
		f.slack.replies = []slacksvc.Reply{
			{UserID: botID, TS: "1700000030.000100", Text: "tracking this"},
			{UserID: "U_ASKER", TS: "1700000040.000100", Text: "anyone?"},
			{UserID: "U_APP", TS: "1700000050.000100", Text: "automated", IsBot: true},
		}

		gt.NoError(t, f.engine.Sweep(context.Background())).Required()

		stored := f.getQuestion(t, q.ID)
		gt.Value(t, stored.Status).Equal(types.QuestionStatusUnanswered)
		gt.Value(t, stored.Level).Equal(types.LevelFirst)
	})
}

func TestSweepSingleFlight(t *testing.T) {
	f := newFixture(t, types.DetectionModeHybrid)
	q := f.addQuestion(t, "1700000000.000100", f.now.Add(-3*time.Minute))
	f.slack.listEntered = make(chan struct{})
	f.slack.listRelease = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- f.engine.Sweep(context.Background())
	}()
	<-f.slack.listEntered

	// The first sweep is held mid-flight inside the Slack call; a second
	// sweep must return immediately without touching any question
	gt.NoError(t, f.engine.Sweep(context.Background())).Required()
	gt.Value(t, f.getQuestion(t, q.ID).Level).Equal(types.LevelNone)
	rows, err := f.repo.Escalation().ListByQuestion(context.Background(), wsID, q.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, rows).Length(0)

	close(f.slack.listRelease)
	gt.NoError(t, <-done).Required()

	// Only the held sweep escalated, exactly once
	gt.Value(t, f.getQuestion(t, q.ID).Level).Equal(types.LevelFirst)
	rows, err = f.repo.Escalation().ListByQuestion(context.Background(), wsID, q.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, rows).Length(1)
}

func TestEngineLifecycle(t *testing.T) {
	f := newFixture(t, types.DetectionModeHybrid)
	f.addQuestion(t, "1700000000.000100", f.now.Add(-3*time.Minute))

	engine := f.engine
	gt.NoError(t, engine.Start(context.Background())).Required()

	// The initial sweep runs promptly after Start
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		q, err := f.repo.Question().Get(context.Background(), wsID, types.NewQuestionID(wsID, chID, "1700000000.000100"))
		gt.NoError(t, err).Required()
		if q.Level == types.LevelFirst {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	engine.Stop()
	gt.Value(t, f.getQuestion(t, types.NewQuestionID(wsID, chID, "1700000000.000100")).Level).Equal(types.LevelFirst)
}
