package config

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/askloop/askloop/pkg/domain/interfaces"
	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/utils/logging"
)

// Policy holds the CLI flag for the optional escalation policy seed file.
// The file pre-provisions workspace configurations so a fleet can be set up
// declaratively instead of one admin call at a time.
type Policy struct {
	path string
}

func (x *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy-config",
			Usage:       "Path to TOML file seeding workspace escalation policies",
			Sources:     cli.EnvVars("ASKLOOP_POLICY_CONFIG"),
			Destination: &x.path,
		},
	}
}

// PolicyFile is the TOML document layout
type PolicyFile struct {
	Workspaces []WorkspacePolicy `toml:"workspace"`
}

// WorkspacePolicy is one seeded workspace configuration. Zero thresholds fall
// back to the built-in defaults.
type WorkspacePolicy struct {
	ID              string `toml:"id"`
	FirstThreshold  int    `toml:"first_threshold"`
	SecondThreshold int    `toml:"second_threshold"`
	FinalThreshold  int    `toml:"final_threshold"`
	DetectionMode   string `toml:"detection_mode"`
}

// ToConfig converts the TOML entry to a domain configuration
func (w *WorkspacePolicy) ToConfig() *model.WorkspaceConfig {
	cfg := model.NewWorkspaceConfig(types.WorkspaceID(w.ID))
	if w.FirstThreshold > 0 {
		cfg.FirstThreshold = w.FirstThreshold
	}
	if w.SecondThreshold > 0 {
		cfg.SecondThreshold = w.SecondThreshold
	}
	if w.FinalThreshold > 0 {
		cfg.FinalThreshold = w.FinalThreshold
	}
	if w.DetectionMode != "" {
		cfg.DetectionMode = types.DetectionMode(w.DetectionMode)
	}
	return cfg
}

// Load parses the policy file. Returns nil when no path was given.
func (x *Policy) Load() (*PolicyFile, error) {
	if x.path == "" {
		return nil, nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(x.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read policy config", goerr.V("path", x.path))
	}

	var file PolicyFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML policy config", goerr.V("path", x.path))
	}

	for _, ws := range file.Workspaces {
		if err := ws.ToConfig().Validate(); err != nil {
			return nil, goerr.Wrap(err, "policy config validation failed", goerr.V("path", x.path))
		}
	}

	return &file, nil
}

// Apply persists the seeded configurations. Existing configurations for the
// listed workspaces are overwritten; unlisted workspaces are untouched.
func (x *Policy) Apply(ctx context.Context, repo interfaces.Repository) error {
	file, err := x.Load()
	if err != nil {
		return err
	}
	if file == nil {
		return nil
	}

	for _, ws := range file.Workspaces {
		if err := repo.Workspace().PutConfig(ctx, ws.ToConfig()); err != nil {
			return goerr.Wrap(err, "failed to seed workspace policy", goerr.V("workspace_id", ws.ID))
		}
	}
	logging.Default().Info("workspace policies seeded",
		"path", x.path, "count", len(file.Workspaces))
	return nil
}
