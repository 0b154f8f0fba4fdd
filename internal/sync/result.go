package sync

import (
	"fmt"
	"strings"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/naming"
)

// PluginResult is every materialization unit one plugin produced.
type PluginResult struct {
	Plugin  string             `json:"plugin"`
	Source  string             `json:"source"`
	Results []model.CopyResult `json:"results"`
}

// Count returns how many units ended with action.
func (pr *PluginResult) Count(action model.Action) int {
	n := 0
	for _, r := range pr.Results {
		if r.Action == action {
			n++
		}
	}
	return n
}

// SyncResult is the outcome of one run, or of several merged together.
type SyncResult struct {
	Scope   model.Scope `json:"scope,omitempty"`
	Root    string      `json:"root,omitempty"`
	Success bool        `json:"success"`
	DryRun  bool        `json:"dryRun,omitempty"`

	PluginResults []PluginResult `json:"pluginResults"`
	// Workspace holds workspace-root files and agent-file rules blocks.
	Workspace []model.CopyResult `json:"workspace,omitempty"`

	TotalCopied    int `json:"totalCopied"`
	TotalGenerated int `json:"totalGenerated"`
	TotalFailed    int `json:"totalFailed"`
	TotalSkipped   int `json:"totalSkipped"`

	// PurgedPaths are the paths removed, or that would be removed on a dry run.
	PurgedPaths []string                   `json:"purgedPaths,omitempty"`
	Renamed     []naming.ResolvedSkillName `json:"renamed,omitempty"`
	MCPServers  []string                   `json:"mcpServers,omitempty"`
	// Snapshot is the archive written before a hard purge.
	Snapshot string   `json:"snapshot,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func newResult(scope model.Scope, root string, dryRun bool) *SyncResult {
	return &SyncResult{
		Scope:         scope,
		Root:          root,
		DryRun:        dryRun,
		PluginResults: []PluginResult{},
	}
}

// Warn appends a formatted warning.
func (r *SyncResult) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// fail marks the result unsuccessful with err.
func (r *SyncResult) fail(err error) {
	r.Success = false
	if err != nil {
		r.Error = err.Error()
	}
}

// tally recomputes the totals from every unit and sets Success.
func (r *SyncResult) tally() {
	r.TotalCopied, r.TotalGenerated, r.TotalFailed, r.TotalSkipped = 0, 0, 0, 0
	count := func(results []model.CopyResult) {
		for _, cr := range results {
			switch cr.Action {
			case model.ActionCopied:
				r.TotalCopied++
			case model.ActionGenerated:
				r.TotalGenerated++
			case model.ActionFailed:
				r.TotalFailed++
			case model.ActionSkipped:
				r.TotalSkipped++
			}
		}
	}
	for _, pr := range r.PluginResults {
		count(pr.Results)
	}
	count(r.Workspace)
	r.Success = r.Error == "" && r.TotalFailed == 0
}

// Failed returns every failed unit.
func (r *SyncResult) Failed() []model.CopyResult {
	var out []model.CopyResult
	for _, pr := range r.PluginResults {
		for _, cr := range pr.Results {
			if cr.Action == model.ActionFailed {
				out = append(out, cr)
			}
		}
	}
	for _, cr := range r.Workspace {
		if cr.Action == model.ActionFailed {
			out = append(out, cr)
		}
	}
	return out
}

// ExitCode returns the process exit status for the result. A dry run that
// computed its plan exits zero.
func (r *SyncResult) ExitCode() int {
	if r.DryRun && r.Error == "" {
		return 0
	}
	if !r.Success || r.TotalFailed > 0 {
		return 1
	}
	return 0
}

// MergeResults combines the results of separate runs, such as project and
// user scope. Totals are summed and lists concatenated in argument order.
func MergeResults(results ...*SyncResult) *SyncResult {
	merged := &SyncResult{Success: true, PluginResults: []PluginResult{}}
	var errs []string
	for _, r := range results {
		if r == nil {
			continue
		}
		merged.Success = merged.Success && r.Success
		merged.DryRun = merged.DryRun || r.DryRun
		merged.PluginResults = append(merged.PluginResults, r.PluginResults...)
		merged.Workspace = append(merged.Workspace, r.Workspace...)
		merged.TotalCopied += r.TotalCopied
		merged.TotalGenerated += r.TotalGenerated
		merged.TotalFailed += r.TotalFailed
		merged.TotalSkipped += r.TotalSkipped
		merged.PurgedPaths = append(merged.PurgedPaths, r.PurgedPaths...)
		merged.Renamed = append(merged.Renamed, r.Renamed...)
		merged.MCPServers = append(merged.MCPServers, r.MCPServers...)
		merged.Warnings = append(merged.Warnings, r.Warnings...)
		if r.Error != "" {
			errs = append(errs, r.Error)
		}
	}
	merged.Error = strings.Join(errs, "; ")
	return merged
}

// Summary returns a one-line human-readable summary.
func (r *SyncResult) Summary() string {
	var sb strings.Builder
	if r.DryRun {
		sb.WriteString("[dry-run] ")
	}
	fmt.Fprintf(&sb, "%d copied, %d generated, %d skipped, %d failed",
		r.TotalCopied, r.TotalGenerated, r.TotalSkipped, r.TotalFailed)
	if n := len(r.PurgedPaths); n > 0 {
		verb := "purged"
		if r.DryRun {
			verb = "to purge"
		}
		fmt.Fprintf(&sb, ", %d %s", n, verb)
	}
	if n := len(r.Renamed); n > 0 {
		fmt.Fprintf(&sb, ", %d renamed", n)
	}
	if n := len(r.Warnings); n > 0 {
		fmt.Fprintf(&sb, " (%d warnings)", n)
	}
	return sb.String()
}
