package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/klauern/agentsync/internal/backup"
	"github.com/klauern/agentsync/internal/clients"
	"github.com/klauern/agentsync/internal/config"
	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/mcp"
	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/naming"
	"github.com/klauern/agentsync/internal/plugin"
	"github.com/klauern/agentsync/internal/skills"
	"github.com/klauern/agentsync/internal/state"
	"github.com/klauern/agentsync/internal/util"
	"github.com/klauern/agentsync/internal/validation"
)

// DefaultConcurrency bounds parallel copies within one batch.
const DefaultConcurrency = 8

// PluginValidator resolves every plugin spec or fails as a whole.
type PluginValidator interface {
	Validate(ctx context.Context, specs []plugin.Spec) ([]model.ResolvedPlugin, []string, error)
}

// Options configures one sync run.
type Options struct {
	// Root is the directory client paths are relative to.
	Root  string
	Scope model.Scope
	// DryRun plans and compares without writing anything.
	DryRun bool
	// Concurrency bounds parallel copies. Zero means DefaultConcurrency.
	Concurrency int
	// Progress is called once per materialization unit, from the calling
	// goroutine.
	Progress func(model.CopyResult)
	// Store overrides where sync state is kept.
	Store *state.Store
}

// PurgeOptions configures a purge.
type PurgeOptions struct {
	Root  string
	Scope model.Scope
	// Hard deletes each configured client's whole footprint instead of only
	// what the last sync recorded.
	Hard bool
	// Snapshot archives the footprint before a hard purge.
	Snapshot bool
	// BackupDir overrides where snapshots are written.
	BackupDir string
	DryRun    bool
	Store     *state.Store
}

// Syncer runs synchronizations. The zero value is not usable; use New.
type Syncer struct {
	Fetcher   *plugin.Fetcher
	Registrar *plugin.Registrar
	// Validator overrides the default source-resolving validator.
	Validator PluginValidator
	Skills    validation.SkillValidator
	// MCP merges plugin MCP servers in project scope. Nil disables merging.
	MCP mcp.Merger
}

// New returns a Syncer using the plugin cache and marketplace registry in
// the agentsync home directory.
func New(offline bool) *Syncer {
	fetcher := plugin.NewFetcher(util.PluginCachePath(), offline)
	return &Syncer{
		Fetcher:   fetcher,
		Registrar: plugin.NewRegistrar(plugin.NewRegistry(util.MarketplacesFile()), fetcher),
		Skills:    validation.ManifestValidator{},
		MCP:       mcp.JSONMerger{},
	}
}

func (s *Syncer) validator(root string) PluginValidator {
	if s.Validator != nil {
		return s.Validator
	}
	return plugin.NewValidator(plugin.NewSourceResolver(root, s.Fetcher, s.Registrar))
}

func (s *Syncer) invalidate() {
	if s.Registrar != nil && s.Registrar.Cache != nil {
		s.Registrar.Cache.Invalidate()
	}
	if s.Fetcher != nil {
		s.Fetcher.Reset()
	}
}

// Sync reconciles root against cfg. It returns an error only when the run
// stopped early; per-unit failures are reported in the result.
func (s *Syncer) Sync(ctx context.Context, cfg *config.Config, opts Options) (*SyncResult, error) {
	defer logging.Timer("sync")()

	scope := opts.Scope
	if scope == "" {
		scope = model.ScopeProject
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, abort(StageConfig, fmt.Errorf("invalid root %q: %w", opts.Root, err))
	}
	res := newResult(scope, root, opts.DryRun)
	stop := func(stage Stage, err error) (*SyncResult, error) {
		err = abort(stage, err)
		logging.Error("sync aborted", logging.Scope(string(scope)), logging.Err(err))
		res.tally()
		res.fail(err)
		return res, err
	}

	if cfg == nil {
		return stop(StageConfig, errors.New("no configuration loaded"))
	}
	configured := cfg.ClientList()
	if len(configured) == 0 {
		return stop(StageConfig, errors.New("no clients configured"))
	}
	table := model.Mappings(scope)

	logging.Debug("starting sync",
		logging.Scope(string(scope)),
		logging.Path(root),
		logging.Count(len(cfg.Plugins)),
		slog.Bool("dry_run", opts.DryRun),
	)

	plugins, warnings, err := s.validator(root).Validate(ctx, cfg.PluginSpecs())
	res.Warnings = append(res.Warnings, warnings...)
	if err != nil {
		return stop(StageResolve, err)
	}
	s.preRegister(ctx, cfg, res)

	store := opts.Store
	if store == nil {
		store = state.StoreFor(root, scope)
	}
	prev, err := store.Load()
	if err != nil {
		res.Warn("ignoring unreadable sync state: %v", err)
		prev = state.New()
	}

	cols, err := skills.NewCollector(s.Skills, cfg.DisabledSkills).Collect(plugins)
	if err != nil {
		return stop(StageCollect, err)
	}
	names := naming.Resolve(skills.Entries(cols))
	if err := names.Validate(); err != nil {
		return stop(StageNaming, err)
	}
	res.Renamed = names.Renamed()
	for _, n := range res.Renamed {
		logging.Info("renamed skill",
			logging.Plugin(n.Original.PluginName),
			logging.Skill(n.Original.FolderName),
			slog.String("resolved", n.ResolvedName),
		)
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	plans := clients.BuildAll(configured, table)
	m := &materializer{
		root:         root,
		dryRun:       opts.DryRun,
		limit:        limit,
		mode:         cfg.Mode(),
		table:        table,
		plans:        plans,
		names:        names,
		progress:     opts.Progress,
		claimed:      make(map[string]model.ResolvedPlugin),
		produced:     make(map[model.Client]map[model.ContentKind][]string),
		failed:       make(map[model.Client]map[model.ContentKind][]string),
		direct:       make(map[model.Client][]string),
		directFailed: make(map[model.Client][]string),
	}
	for _, col := range cols {
		res.PluginResults = append(res.PluginResults, m.plugin(ctx, col))
	}
	res.Workspace = m.workspace(ctx, cfg.Workspace, configured, scope == model.ScopeProject)
	res.Warnings = append(res.Warnings, m.warnings...)

	next := state.New()
	for c, paths := range plans.FanOut(m.produced) {
		next.Add(c, paths...)
	}
	for c, paths := range m.direct {
		next.Add(c, paths...)
	}
	keepFailed(prev, next, plans.FanOut(m.failed))
	keepFailed(prev, next, m.directFailed)

	if s.MCP != nil && scope == model.ScopeProject {
		previous := prev.Servers(scope)
		merged, err := s.MCP.Merge(ctx, root, plugins, previous, opts.DryRun)
		if err != nil {
			res.Warn("MCP merge failed: %v", err)
			next.SetServers(scope, previous)
		} else {
			res.MCPServers = merged.Servers
			res.Warnings = append(res.Warnings, merged.Warnings...)
			next.SetServers(scope, merged.Servers)
		}
	}

	orphans := state.Orphans(prev, next)
	p := &purger{root: root, dryRun: opts.DryRun}
	purged, purgeWarnings := p.remove(orphans)
	res.PurgedPaths = purged
	res.Warnings = append(res.Warnings, purgeWarnings...)

	res.tally()
	if opts.DryRun {
		logging.Debug("dry run complete", logging.Scope(string(scope)), logging.Count(len(orphans)))
		return res, nil
	}

	s.invalidate()
	if err := store.Save(next); err != nil {
		err = fmt.Errorf("failed to save sync state: %w", err)
		res.fail(err)
		return res, err
	}
	logging.Info("sync complete",
		logging.Scope(string(scope)),
		slog.Int("copied", res.TotalCopied),
		slog.Int("generated", res.TotalGenerated),
		slog.Int("skipped", res.TotalSkipped),
		slog.Int("failed", res.TotalFailed),
		slog.Int("purged", len(res.PurgedPaths)),
	)
	return res, nil
}

// preRegister registers marketplace sources up front. Failures are warnings;
// resolution already guaranteed every plugin directory exists.
func (s *Syncer) preRegister(ctx context.Context, cfg *config.Config, res *SyncResult) {
	if s.Registrar == nil {
		return
	}
	sources := make([]string, len(cfg.Plugins))
	for i, p := range cfg.Plugins {
		sources[i] = p.Source
	}
	failures := s.Registrar.EnsureRegistered(ctx, sources)
	keys := make([]string, 0, len(failures))
	for src := range failures {
		keys = append(keys, src)
	}
	sort.Strings(keys)
	for _, src := range keys {
		res.Warn("failed to register marketplace for %s: %v", src, failures[src])
	}
}

// keepFailed carries forward paths a client owned last run whose copy failed
// this run, so a later run can still purge them.
func keepFailed(prev, next *state.State, failed map[model.Client][]string) {
	for c, paths := range failed {
		owned := make(map[string]bool, len(prev.Files[c]))
		for _, p := range prev.Files[c] {
			owned[p] = true
		}
		for _, p := range paths {
			if owned[p] {
				next.Add(c, p)
			}
		}
	}
}

// Purge removes synchronized artifacts. A plain purge deletes what the last
// sync recorded. A hard purge deletes the footprint of every configured
// client, optionally after writing a snapshot. Both remove owned MCP servers
// and the state file.
func (s *Syncer) Purge(ctx context.Context, cfg *config.Config, opts PurgeOptions) (*SyncResult, error) {
	defer logging.Timer("purge")()

	scope := opts.Scope
	if scope == "" {
		scope = model.ScopeProject
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, abort(StageConfig, fmt.Errorf("invalid root %q: %w", opts.Root, err))
	}
	res := newResult(scope, root, opts.DryRun)

	store := opts.Store
	if store == nil {
		store = state.StoreFor(root, scope)
	}
	prev, err := store.Load()
	if err != nil {
		res.Warn("ignoring unreadable sync state: %v", err)
		prev = state.New()
	}

	set := prev.Owned()
	if opts.Hard {
		if cfg == nil {
			err := abort(StageConfig, errors.New("hard purge needs a configuration"))
			res.fail(err)
			return res, err
		}
		table := model.Mappings(scope)
		for _, c := range cfg.ClientList() {
			if m, ok := table.Lookup(c); ok {
				for _, p := range m.Footprint() {
					set[p] = struct{}{}
				}
			}
		}
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if opts.Hard && opts.Snapshot && !opts.DryRun {
		dir := opts.BackupDir
		if dir == "" {
			dir = util.BackupsPath()
		}
		snap, _, err := backup.Create(root, paths, backup.Options{Dir: dir, Scope: string(scope)})
		if err != nil {
			err = abort(StageSnapshot, err)
			res.fail(err)
			return res, err
		}
		res.Snapshot = snap
		if _, err := backup.Prune(dir, cfg.MaxBackups(), false); err != nil {
			res.Warn("failed to prune snapshots: %v", err)
		}
	}

	p := &purger{root: root, dryRun: opts.DryRun, whole: opts.Hard}
	purged, warnings := p.remove(paths)
	res.PurgedPaths = purged
	res.Warnings = append(res.Warnings, warnings...)

	if previous := prev.Servers(scope); s.MCP != nil && len(previous) > 0 {
		merged, err := s.MCP.Merge(ctx, root, nil, previous, opts.DryRun)
		if err != nil {
			res.Warn("failed to remove MCP servers: %v", err)
		} else {
			logging.Debug("removed MCP servers", logging.Count(len(merged.Removed)))
		}
	}

	res.tally()
	if opts.DryRun {
		return res, nil
	}
	s.invalidate()
	if err := store.Remove(); err != nil {
		res.Warn("%v", err)
	}
	logging.Info("purge complete",
		logging.Scope(string(scope)),
		logging.Count(len(res.PurgedPaths)),
		slog.Bool("hard", opts.Hard),
	)
	return res, nil
}
