package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klauern/agentsync/internal/model"
)

func entry(folder, plugin, source string) model.SkillEntry {
	return model.SkillEntry{
		FolderName:   folder,
		PluginName:   plugin,
		PluginSource: source,
		SourcePath:   source + "/skills/" + folder,
	}
}

func names(r *Resolution) []string {
	out := make([]string, len(r.Names))
	for i, n := range r.Names {
		out[i] = n.ResolvedName
	}
	return out
}

func TestResolve_NoConflictPassthrough(t *testing.T) {
	res := Resolve([]model.SkillEntry{
		entry("lint", "alpha", "./alpha"),
		entry("deploy", "beta", "./beta"),
	})

	assert.Equal(t, []string{"lint", "deploy"}, names(res))
	for _, n := range res.Names {
		assert.False(t, n.WasRenamed, "%s should not be renamed", n.ResolvedName)
	}
	assert.Empty(t, res.Renamed())
	require.NoError(t, res.Validate())
}

func TestResolve_DistinctPluginsSharingFolder(t *testing.T) {
	res := Resolve([]model.SkillEntry{
		entry("common", "plugin-alpha", "./plugin-alpha"),
		entry("solo", "plugin-alpha", "./plugin-alpha"),
		entry("common", "plugin-beta", "./plugin-beta"),
	})

	assert.Equal(t, []string{"plugin-alpha_common", "solo", "plugin-beta_common"}, names(res))
	assert.True(t, res.Names[0].WasRenamed)
	assert.False(t, res.Names[1].WasRenamed)
	assert.Len(t, res.Renamed(), 2)
	require.NoError(t, res.Validate())
}

func TestResolve_RemovingConflictRevertsToBareName(t *testing.T) {
	before := Resolve([]model.SkillEntry{
		entry("common", "plugin-alpha", "./plugin-alpha"),
		entry("common", "plugin-beta", "./plugin-beta"),
	})
	after := Resolve([]model.SkillEntry{
		entry("common", "plugin-alpha", "./plugin-alpha"),
	})

	assert.Equal(t, "plugin-alpha_common", before.Names[0].ResolvedName)
	assert.Equal(t, "common", after.Names[0].ResolvedName)
	assert.False(t, after.Names[0].WasRenamed)
}

func TestResolve_SamePluginNameUsesOrganization(t *testing.T) {
	res := Resolve([]model.SkillEntry{
		entry("common", "tools", "github:acme/tools"),
		entry("common", "tools", "https://github.com/globex/tools.git"),
	})

	assert.Equal(t, []string{"acme_tools_common", "globex_tools_common"}, names(res))
	require.NoError(t, res.Validate())
}

func TestResolve_SamePluginNameLocalUsesHash(t *testing.T) {
	a, b := "./vendor/a/tools", "./vendor/b/tools"
	res := Resolve([]model.SkillEntry{
		entry("common", "tools", a),
		entry("common", "tools", b),
	})

	hash := func(s string) string {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])[:6]
	}
	want := []string{hash(a) + "_tools_common", hash(b) + "_tools_common"}
	if diff := cmp.Diff(want, names(res)); diff != "" {
		t.Errorf("resolved names mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, res.Validate())
}

func TestResolve_Deterministic(t *testing.T) {
	input := []model.SkillEntry{
		entry("common", "tools", "./a/tools"),
		entry("x", "alpha", "./alpha"),
		entry("common", "tools", "./b/tools"),
		entry("x", "beta", "./beta"),
		entry("common", "gamma", "./gamma"),
	}

	first := Resolve(input)
	for range 5 {
		again := Resolve(input)
		if diff := cmp.Diff(first.Names, again.Names); diff != "" {
			t.Fatalf("resolution not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestResolve_NamesAreUnique(t *testing.T) {
	input := []model.SkillEntry{
		entry("common", "tools", "./a/tools"),
		entry("common", "tools", "./b/tools"),
		entry("common", "other", "./other"),
		entry("lint", "tools", "./a/tools"),
		entry("lint", "other", "./other"),
		entry("deploy", "other", "./other"),
	}

	res := Resolve(input)
	seen := make(map[string]bool)
	for _, n := range res.Names {
		require.False(t, seen[n.ResolvedName], "duplicate name %s", n.ResolvedName)
		seen[n.ResolvedName] = true
	}
	require.NoError(t, res.Validate())
}

func TestResolution_Lookups(t *testing.T) {
	alpha := entry("common", "alpha", "./alpha")
	beta := entry("common", "beta", "./beta")
	res := Resolve([]model.SkillEntry{alpha, beta, entry("solo", "alpha", "./alpha")})

	name, ok := res.NameFor(beta)
	require.True(t, ok)
	assert.Equal(t, "beta_common", name)

	_, ok = res.NameFor(entry("missing", "alpha", "./alpha"))
	assert.False(t, ok)

	assert.Equal(t, map[string]string{"common": "alpha_common", "solo": "solo"}, res.ForPlugin("./alpha", "alpha"))
}

func TestResolution_ValidateDetectsCollision(t *testing.T) {
	// A folder literally named like an escalated name collides with it.
	res := Resolve([]model.SkillEntry{
		entry("common", "alpha", "./alpha"),
		entry("common", "beta", "./beta"),
		entry("alpha_common", "gamma", "./gamma"),
	})

	err := res.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alpha_common")
}

func TestDisambiguator(t *testing.T) {
	assert.Equal(t, "acme", Disambiguator("github:acme/tools"))
	assert.Equal(t, "acme", Disambiguator("tools@acme/market"))
	assert.Equal(t, "acme", Disambiguator("acme/tools"))
	assert.Equal(t, Disambiguator("github:acme/tools"), Disambiguator("acme/tools"))
	assert.Len(t, Disambiguator("./local/tools"), 6)
	assert.Equal(t, Disambiguator("./local/tools"), Disambiguator("./local/tools"))
	assert.NotEqual(t, Disambiguator("./a"), Disambiguator("./b"))
}
