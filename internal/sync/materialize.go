package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/klauern/agentsync/internal/clients"
	"github.com/klauern/agentsync/internal/config"
	"github.com/klauern/agentsync/internal/glob"
	"github.com/klauern/agentsync/internal/links"
	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/naming"
	"github.com/klauern/agentsync/internal/skills"
	"github.com/klauern/agentsync/internal/util"
)

// DefaultWorkspaceSource is where workspace files are read from when the
// config names no source.
const DefaultWorkspaceSource = util.StateDirName + "/workspace"

// githubDir is the auxiliary content directory inside a plugin.
const githubDir = ".github"

// unit is one source → destination copy.
type unit struct {
	kind   model.ContentKind
	client model.Client
	source string
	dest   string
	dir    bool
	link   bool
	// data, when set, is written instead of the source file.
	data []byte
	// render transforms file content before comparison and write.
	render func([]byte) []byte
	// owners, when set, receive the produced path directly instead of
	// through the client plan.
	owners []model.Client
}

// materializer writes plugin and workspace content for one run. It is used
// from a single goroutine; only apply runs concurrently.
type materializer struct {
	root     string
	dryRun   bool
	limit    int
	mode     config.SyncMode
	table    model.MappingTable
	plans    clients.Set
	names    *naming.Resolution
	progress func(model.CopyResult)

	// claimed maps destinations of file kinds to the plugin that wrote them.
	// Plugins are identified by source, since names may repeat.
	claimed map[string]model.ResolvedPlugin

	produced     map[model.Client]map[model.ContentKind][]string
	failed       map[model.Client]map[model.ContentKind][]string
	direct       map[model.Client][]string
	directFailed map[model.Client][]string
	warnings     []string
}

func (m *materializer) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logging.Warn(msg)
	m.warnings = append(m.warnings, msg)
}

// plugin materializes every content kind of one plugin.
func (m *materializer) plugin(ctx context.Context, col skills.Collection) PluginResult {
	p := col.Plugin
	pr := PluginResult{Plugin: p.Name, Source: p.Spec}
	m.report(col.Results)
	pr.Results = append(pr.Results, col.Results...)

	for _, kind := range model.PluginKinds() {
		plan := m.plans[kind]
		if plan == nil {
			continue
		}
		var units []unit
		for _, rep := range plan.Active() {
			u, skipped := m.pluginUnits(kind, rep, plan.Path(rep), col)
			units = append(units, u...)
			m.report(skipped)
			pr.Results = append(pr.Results, skipped...)
		}
		if len(units) == 0 {
			continue
		}
		logging.Debug("materializing",
			logging.Plugin(p.Name),
			logging.Operation(string(kind)),
			logging.Count(len(units)),
		)
		pr.Results = append(pr.Results, m.run(ctx, units)...)
	}
	return pr
}

// pluginUnits plans one kind for one representative. Destinations already
// claimed by an earlier plugin are returned as skipped results.
func (m *materializer) pluginUnits(kind model.ContentKind, rep model.Client, base string, col skills.Collection) ([]unit, []model.CopyResult) {
	p := col.Plugin
	var candidates []unit

	switch kind {
	case model.KindSkills:
		for _, e := range col.Entries {
			name, ok := m.names.NameFor(e)
			if !ok {
				name = e.FolderName
			}
			candidates = append(candidates, unit{
				source: e.SourcePath,
				dest:   path.Join(base, name),
				dir:    true,
				link:   m.mode == config.SyncModeSymlink,
			})
		}
		// Resolved names are unique; no claim is needed.
		for i := range candidates {
			candidates[i].kind, candidates[i].client = kind, rep
		}
		return candidates, nil

	case model.KindCommands, model.KindAgents:
		dir := filepath.Join(p.Path, string(kind))
		for _, name := range markdownFiles(dir) {
			candidates = append(candidates, unit{
				source: filepath.Join(dir, name),
				dest:   path.Join(base, name),
			})
		}

	case model.KindHooks:
		dir := filepath.Join(p.Path, string(kind))
		if isDir(dir) {
			candidates = append(candidates, unit{source: dir, dest: path.Join(base, p.Name), dir: true})
		}

	case model.KindGithub:
		dir := filepath.Join(p.Path, githubDir)
		if !isDir(dir) {
			break
		}
		files, err := glob.Walk(dir)
		if err != nil {
			m.warn("failed to list %s of %s: %v", githubDir, p.Name, err)
			break
		}
		adjuster := links.New(m.table[rep].SkillsPath, m.names.ForPlugin(p.Spec, p.Name))
		for _, rel := range files {
			u := unit{
				source: filepath.Join(dir, filepath.FromSlash(rel)),
				dest:   path.Join(base, rel),
			}
			if links.IsDocument(rel) {
				srcRel, destRel := path.Join(githubDir, rel), u.dest
				u.render = func(data []byte) []byte {
					out, _ := adjuster.Rewrite(string(data), srcRel, destRel)
					return []byte(out)
				}
			}
			candidates = append(candidates, u)
		}
	}

	var units []unit
	var skipped []model.CopyResult
	for _, u := range candidates {
		u.kind, u.client = kind, rep
		if owner, taken := m.claimed[u.dest]; taken && owner.Spec != p.Spec {
			m.warn("%s from %s ignored; already provided by %s", u.dest, pluginLabel(p), pluginLabel(owner))
			skipped = append(skipped, model.CopyResult{
				Source: u.source,
				Action: model.ActionSkipped,
				Client: rep,
				Kind:   kind,
			})
			continue
		}
		m.claimed[u.dest] = p
		units = append(units, u)
	}
	return units, skipped
}

func pluginLabel(p model.ResolvedPlugin) string {
	if p.Spec == "" || p.Spec == p.Name {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Spec)
}

// workspace materializes workspace-root files and the agent-file rules
// block. Produced paths are owned by every configured client.
func (m *materializer) workspace(ctx context.Context, ws *config.Workspace, configured []model.Client, withFiles bool) []model.CopyResult {
	if ws == nil {
		return nil
	}

	var units []unit
	var results []model.CopyResult
	planned := make(map[string]int)
	if withFiles && len(ws.Files) > 0 {
		units, results = m.workspaceFiles(ws, configured)
		for i, u := range units {
			planned[u.dest] = i
		}
	}

	if strings.TrimSpace(ws.Rules) != "" {
		rules := ws.Rules
		targets, order := m.ruleTargets(planned)
		for _, dest := range order {
			if i, ok := planned[dest]; ok {
				units[i].render = func(data []byte) []byte {
					return []byte(upsertRules(string(data), rules))
				}
				continue
			}
			abs := filepath.Join(m.root, filepath.FromSlash(dest))
			// #nosec G304 - agent file inside the sync root
			current, err := os.ReadFile(abs)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				r := model.Failed("workspace.rules", dest, err)
				r.Kind = model.KindAgentFile
				results = append(results, r)
				continue
			}
			units = append(units, unit{
				kind:   model.KindAgentFile,
				client: targets[dest][0],
				source: "workspace.rules",
				dest:   dest,
				data:   []byte(upsertRules(string(current), rules)),
				owners: targets[dest],
			})
		}
	}

	m.report(results)
	return append(results, m.run(ctx, units)...)
}

func (m *materializer) workspaceFiles(ws *config.Workspace, configured []model.Client) ([]unit, []model.CopyResult) {
	source := ws.Source
	if source == "" {
		source = DefaultWorkspaceSource
	}
	srcDir := util.ExpandPath(source, m.root)
	if filepath.Clean(srcDir) == filepath.Clean(m.root) {
		m.warn("workspace source %q is the sync root; workspace files skipped", source)
		return nil, nil
	}

	var patterns []string
	var explicit []config.FileEntry
	for _, f := range ws.Files {
		if f.IsPattern() {
			patterns = append(patterns, f.Pattern)
		} else {
			explicit = append(explicit, f)
		}
	}

	var units []unit
	var results []model.CopyResult
	seen := make(map[string]bool)
	add := func(src, dest string) {
		if seen[dest] {
			m.warn("workspace file %s listed more than once; first entry wins", dest)
			return
		}
		seen[dest] = true
		units = append(units, unit{
			kind:   model.KindWorkspace,
			source: src,
			dest:   dest,
			owners: configured,
		})
	}

	if len(patterns) > 0 {
		sel, err := glob.New(patterns)
		switch {
		case err != nil:
			m.warn("invalid workspace file pattern: %v", err)
		case !isDir(srcDir):
			m.warn("workspace source %s does not exist", srcDir)
		default:
			files, err := sel.Select(srcDir)
			if err != nil {
				m.warn("failed to select workspace files: %v", err)
			}
			for _, rel := range files {
				add(filepath.Join(srcDir, filepath.FromSlash(rel)), rel)
			}
		}
	}

	for _, f := range explicit {
		dest := path.Clean(filepath.ToSlash(f.Dest))
		src := util.ExpandPath(f.Source, srcDir)
		if !util.WithinRoot(dest) {
			r := model.Failed(src, "", fmt.Errorf("workspace dest %q: %w", f.Dest, errOutsideRoot))
			r.Kind = model.KindWorkspace
			results = append(results, r)
			continue
		}
		add(src, dest)
	}
	return units, results
}

// ruleTargets returns the agent files that receive the rules block, each
// with the clients reading it. A client with a fallback agent file uses the
// fallback whenever it exists, is planned, or is another client's target.
func (m *materializer) ruleTargets(planned map[string]int) (map[string][]model.Client, []string) {
	plan := m.plans[model.KindAgentFile]
	if plan == nil {
		return nil, nil
	}
	primary := make(map[string]bool)
	for _, rep := range plan.Active() {
		primary[plan.Path(rep)] = true
	}

	targets := make(map[string][]model.Client)
	var order []string
	for _, rep := range plan.Active() {
		target := plan.Path(rep)
		if fb := m.table[rep].AgentFileFallback; fb != "" {
			_, isPlanned := planned[fb]
			if primary[fb] || isPlanned || exists(filepath.Join(m.root, filepath.FromSlash(fb))) {
				target = fb
			}
		}
		if _, ok := targets[target]; !ok {
			order = append(order, target)
		}
		targets[target] = append(targets[target], plan.Members(rep)...)
	}
	return targets, order
}

// run applies units concurrently and records their outcome. A failing unit
// never cancels its siblings.
func (m *materializer) run(ctx context.Context, units []unit) []model.CopyResult {
	results := make([]model.CopyResult, len(units))
	var g errgroup.Group
	g.SetLimit(m.limit)
	for i := range units {
		g.Go(func() error {
			results[i] = m.apply(ctx, units[i])
			return nil
		})
	}
	_ = g.Wait()

	for i, u := range units {
		m.record(u, results[i])
	}
	m.report(results)
	return results
}

func (m *materializer) apply(ctx context.Context, u unit) model.CopyResult {
	res := model.CopyResult{Source: u.source, Destination: u.dest, Client: u.client, Kind: u.kind}
	fail := func(err error) model.CopyResult {
		res.Action = model.ActionFailed
		res.Error = err.Error()
		logging.Warn("copy failed", logging.Path(u.dest), logging.Err(err))
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if !util.WithinRoot(u.dest) {
		return fail(fmt.Errorf("%s: %w", u.dest, errOutsideRoot))
	}
	abs := filepath.Join(m.root, filepath.FromSlash(u.dest))

	switch {
	case u.link:
		if sameLink(abs, u.source) {
			res.Action = model.ActionSkipped
			return res
		}
		if !m.dryRun {
			if err := replaceSymlink(u.source, abs); err != nil {
				return fail(err)
			}
		}
		res.Action = model.ActionCopied

	case u.dir:
		if treesEqual(u.source, abs) {
			res.Action = model.ActionSkipped
			return res
		}
		if !m.dryRun {
			if err := replaceDir(u.source, abs); err != nil {
				return fail(err)
			}
		}
		res.Action = model.ActionCopied

	default:
		data, perm, action, err := u.content()
		if err != nil {
			return fail(err)
		}
		if sameFile(abs, data) {
			res.Action = model.ActionSkipped
			return res
		}
		if !m.dryRun {
			if err := writeFile(abs, data, perm); err != nil {
				return fail(err)
			}
		}
		res.Action = action
	}
	return res
}

// content returns the bytes to write and whether they differ from the source.
func (u unit) content() ([]byte, fs.FileMode, model.Action, error) {
	if u.data != nil {
		return u.data, 0o644, model.ActionGenerated, nil
	}
	info, err := os.Stat(u.source)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to stat source %q: %w", u.source, err)
	}
	// #nosec G304 - source is inside a plugin or the workspace source
	data, err := os.ReadFile(u.source)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to read source %q: %w", u.source, err)
	}
	if u.render == nil {
		return data, info.Mode().Perm(), model.ActionCopied, nil
	}
	out := u.render(data)
	if bytes.Equal(out, data) {
		return out, info.Mode().Perm(), model.ActionCopied, nil
	}
	return out, info.Mode().Perm(), model.ActionGenerated, nil
}

func (m *materializer) record(u unit, r model.CopyResult) {
	if r.Destination == "" {
		return
	}
	if len(u.owners) > 0 {
		direct := m.direct
		switch {
		case r.Produced():
		case r.Action == model.ActionFailed:
			direct = m.directFailed
		default:
			return
		}
		for _, c := range u.owners {
			direct[c] = append(direct[c], r.Destination)
		}
		return
	}
	target := m.produced
	switch {
	case r.Produced():
	case r.Action == model.ActionFailed:
		target = m.failed
	default:
		return
	}
	if target[u.client] == nil {
		target[u.client] = make(map[model.ContentKind][]string)
	}
	target[u.client][u.kind] = append(target[u.client][u.kind], r.Destination)
}

func (m *materializer) report(results []model.CopyResult) {
	if m.progress == nil {
		return
	}
	for _, r := range results {
		m.progress(r)
	}
}

// markdownFiles lists *.md files directly inside dir, following symlinks.
func markdownFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, e.Name())
	}
	return out
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
