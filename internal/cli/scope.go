package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/agentsync/internal/config"
	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/util"
)

const scopeAll = "all"

// target is one scope a command operates on.
type target struct {
	scope model.Scope
	root  string
	// cfg is nil when no configuration exists and none was required.
	cfg *config.Config
}

func scopeFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "scope",
		Aliases: []string{"s"},
		Value:   string(model.ScopeProject),
		Usage:   "Scope to operate on: project, user or all",
	}
}

func rootFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "root",
		Aliases: []string{"C"},
		Value:   ".",
		Usage:   "Project root for project scope",
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "config",
		Usage: "Workspace config file (default: <root>/.agentsync/workspace.{yaml,toml,json})",
	}
}

// parseScopes expands the --scope value. "all" means project then user.
func parseScopes(value string) ([]model.Scope, error) {
	if strings.EqualFold(strings.TrimSpace(value), scopeAll) {
		return model.AllScopes(), nil
	}
	scope, err := model.ParseScope(value)
	if err != nil {
		return nil, fmt.Errorf("invalid scope: %w", err)
	}
	return []model.Scope{scope}, nil
}

// resolveTargets returns the root and configuration for every selected
// scope. With a single scope a missing configuration is an error when
// required. With --scope all, scopes without a configuration are skipped as
// long as one remains.
func resolveTargets(cmd *cli.Command, requireConfig bool) ([]target, error) {
	scopes, err := parseScopes(cmd.String("scope"))
	if err != nil {
		return nil, err
	}
	explicit := cmd.String("config")
	if explicit != "" && len(scopes) > 1 {
		return nil, errors.New("--config cannot be combined with --scope all")
	}

	var targets []target
	for _, scope := range scopes {
		t, err := resolveTarget(cmd, scope, explicit)
		switch {
		case err == nil:
			targets = append(targets, t)
		case !config.IsNotExist(err):
			return nil, err
		case !requireConfig:
			targets = append(targets, t)
		case len(scopes) == 1:
			return nil, err
		default:
			logging.Debug("skipping scope without configuration",
				logging.Scope(string(scope)),
				logging.Err(err),
			)
		}
	}
	if len(targets) == 0 {
		return nil, errors.New("no workspace config found for any scope")
	}
	return targets, nil
}

func resolveTarget(cmd *cli.Command, scope model.Scope, explicit string) (target, error) {
	t := target{scope: scope}
	var dir string
	switch scope {
	case model.ScopeUser:
		t.root = util.HomeDir()
		dir = config.UserDir()
	default:
		root, err := filepath.Abs(util.ExpandPath(cmd.String("root"), "."))
		if err != nil {
			return t, fmt.Errorf("invalid root: %w", err)
		}
		t.root = root
		dir = config.ProjectDir(root)
	}

	path := explicit
	if path == "" {
		found, err := config.Find(dir)
		if err != nil {
			return t, err
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return t, err
	}
	t.cfg = cfg
	logging.Debug("loaded config",
		logging.Scope(string(scope)),
		logging.Path(path),
	)
	return t, nil
}
