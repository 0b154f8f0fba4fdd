package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/klauern/agentsync/internal/model"
)

func resultWith(actions ...model.Action) *SyncResult {
	r := newResult(model.ScopeProject, "/root", false)
	pr := PluginResult{Plugin: "alpha"}
	for _, a := range actions {
		pr.Results = append(pr.Results, model.CopyResult{Action: a})
	}
	r.PluginResults = append(r.PluginResults, pr)
	r.tally()
	return r
}

func TestSyncResult_Tally(t *testing.T) {
	r := resultWith(model.ActionCopied, model.ActionCopied, model.ActionGenerated, model.ActionSkipped)
	r.Workspace = []model.CopyResult{{Action: model.ActionFailed, Error: "boom"}}
	r.tally()

	assert.Equal(t, 2, r.TotalCopied)
	assert.Equal(t, 1, r.TotalGenerated)
	assert.Equal(t, 1, r.TotalSkipped)
	assert.Equal(t, 1, r.TotalFailed)
	assert.False(t, r.Success)
	assert.Len(t, r.Failed(), 1)
}

func TestSyncResult_ExitCode(t *testing.T) {
	assert.Equal(t, 0, resultWith(model.ActionCopied).ExitCode())
	assert.Equal(t, 1, resultWith(model.ActionFailed).ExitCode())

	dry := resultWith(model.ActionFailed)
	dry.DryRun = true
	assert.Equal(t, 0, dry.ExitCode())

	dry.fail(assert.AnError)
	assert.Equal(t, 1, dry.ExitCode())
}

func TestMergeResults(t *testing.T) {
	project := resultWith(model.ActionCopied, model.ActionSkipped)
	project.PurgedPaths = []string{".claude/skills/old"}
	project.Warnings = []string{"w1"}
	user := resultWith(model.ActionFailed)
	user.Scope = model.ScopeUser
	user.Error = "state"

	merged := MergeResults(project, nil, user)

	assert.Len(t, merged.PluginResults, 2)
	assert.Equal(t, 1, merged.TotalCopied)
	assert.Equal(t, 1, merged.TotalSkipped)
	assert.Equal(t, 1, merged.TotalFailed)
	assert.Equal(t, []string{".claude/skills/old"}, merged.PurgedPaths)
	assert.Equal(t, []string{"w1"}, merged.Warnings)
	assert.Equal(t, "state", merged.Error)
	assert.False(t, merged.Success)
}

func TestSyncResult_Summary(t *testing.T) {
	r := resultWith(model.ActionCopied, model.ActionCopied)
	r.PurgedPaths = []string{"a"}
	assert.Equal(t, "2 copied, 0 generated, 0 skipped, 0 failed, 1 purged", r.Summary())

	r.DryRun = true
	r.Warnings = []string{"w"}
	assert.Equal(t, "[dry-run] 2 copied, 0 generated, 0 skipped, 0 failed, 1 to purge (1 warnings)", r.Summary())
}
