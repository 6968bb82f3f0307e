package usecase

import (
	"net/http"
	"time"

	"github.com/askloop/askloop/pkg/domain/interfaces"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/service/policy"
)

type UseCases struct {
	repo interfaces.Repository
	now  func() time.Time

	Question *QuestionUseCase
	Stats    *StatsUseCase
	Auth     *AuthUseCase
}

type Option func(*UseCases)

// WithClock replaces the time source (for tests)
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

// WithOAuthCredentials sets the Slack app credentials used by the install
// handshake. Without them the auth endpoints refuse to operate.
func WithOAuthCredentials(clientID, clientSecret string) Option {
	return func(uc *UseCases) {
		uc.Auth.clientID = clientID
		uc.Auth.clientSecret = clientSecret
	}
}

// WithHTTPClient replaces the HTTP client used for the OAuth code exchange
// (for tests)
func WithHTTPClient(client *http.Client) Option {
	return func(uc *UseCases) {
		uc.Auth.httpClient = client
	}
}

// WithInstallHook registers a callback invoked after a completed install.
// The client provider hooks in here to drop its cached client so a reinstall
// with a rotated token takes effect without a restart.
func WithInstallHook(fn func(types.WorkspaceID)) Option {
	return func(uc *UseCases) {
		uc.Auth.onInstall = fn
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
		now:  time.Now,
	}
	uc.Auth = &AuthUseCase{uc: uc}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Question = &QuestionUseCase{uc: uc, policies: policy.New(repo)}
	uc.Stats = &StatsUseCase{uc: uc}

	return uc
}
