// Package naming assigns each collected skill a destination name that is
// unique across every plugin in a sync run.
//
// Names escalate only as far as needed:
//
//	common                    folder name used by exactly one skill
//	plugin-alpha_common       folder shared, plugin names distinct
//	acme_plugin-alpha_common  folder and plugin name both shared
//
// The last tier prefixes the hosting organization of a remote plugin source,
// or the first six hex characters of the SHA-256 of the raw source string.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/klauern/agentsync/internal/model"
)

// ResolvedSkillName is a skill entry with its assigned destination name.
type ResolvedSkillName struct {
	Original     model.SkillEntry `json:"original"`
	ResolvedName string           `json:"resolvedName"`
	WasRenamed   bool             `json:"wasRenamed"`
}

// Resolution is the outcome of one resolution run, in input order.
type Resolution struct {
	Names []ResolvedSkillName
	index map[string]int
}

// Resolve assigns names to entries. Identical input in identical order always
// yields identical output.
func Resolve(entries []model.SkillEntry) *Resolution {
	res := &Resolution{
		Names: make([]ResolvedSkillName, len(entries)),
		index: make(map[string]int, len(entries)),
	}

	var order []string
	groups := make(map[string][]int)
	for i, e := range entries {
		if _, seen := groups[e.FolderName]; !seen {
			order = append(order, e.FolderName)
		}
		groups[e.FolderName] = append(groups[e.FolderName], i)
	}

	for _, folder := range order {
		members := groups[folder]
		if len(members) == 1 {
			i := members[0]
			res.set(i, entries[i], folder)
			continue
		}

		pluginCount := make(map[string]int, len(members))
		for _, i := range members {
			pluginCount[entries[i].PluginName]++
		}
		allDistinct := len(pluginCount) == len(members)

		for _, i := range members {
			e := entries[i]
			name := e.PluginName + "_" + folder
			if !allDistinct {
				name = Disambiguator(e.PluginSource) + "_" + name
			}
			res.set(i, e, name)
		}
	}
	return res
}

func (r *Resolution) set(i int, e model.SkillEntry, name string) {
	r.Names[i] = ResolvedSkillName{
		Original:     e,
		ResolvedName: name,
		WasRenamed:   name != e.FolderName,
	}
	r.index[e.Key()] = i
}

// Disambiguator returns the organization of a remote source, or a 6-hex-char
// digest of the raw source string. A bare owner/repo counts as GitHub, the
// same way plugin resolution reads it.
func Disambiguator(source string) string {
	if src := model.ParseSource(source); src.IsRemote() {
		return src.Org
	}
	if gh, ok := model.GitHubShorthand(source); ok {
		if src := model.ParseSource(gh); src.IsRemote() {
			return src.Org
		}
	}
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])[:6]
}

// NameFor returns the resolved name of an entry.
func (r *Resolution) NameFor(e model.SkillEntry) (string, bool) {
	i, ok := r.index[e.Key()]
	if !ok {
		return "", false
	}
	return r.Names[i].ResolvedName, true
}

// ForPlugin returns a folder → resolved name lookup for one plugin.
func (r *Resolution) ForPlugin(pluginSource, pluginName string) map[string]string {
	out := make(map[string]string)
	for _, n := range r.Names {
		if n.Original.PluginSource == pluginSource && n.Original.PluginName == pluginName {
			out[n.Original.FolderName] = n.ResolvedName
		}
	}
	return out
}

// Renamed returns only the entries whose name differs from their folder.
func (r *Resolution) Renamed() []ResolvedSkillName {
	var out []ResolvedSkillName
	for _, n := range r.Names {
		if n.WasRenamed {
			out = append(out, n)
		}
	}
	return out
}

// Validate reports resolved names shared by more than one distinct identity.
// Duplicate identities (the same plugin configured twice) are not collisions.
func (r *Resolution) Validate() error {
	owners := make(map[string]map[string]struct{})
	for _, n := range r.Names {
		if owners[n.ResolvedName] == nil {
			owners[n.ResolvedName] = make(map[string]struct{})
		}
		owners[n.ResolvedName][n.Original.Key()] = struct{}{}
	}

	var dupes []string
	for name, ids := range owners {
		if len(ids) > 1 {
			dupes = append(dupes, name)
		}
	}
	if len(dupes) == 0 {
		return nil
	}
	sort.Strings(dupes)
	return fmt.Errorf("skill name collision after resolution: %s", strings.Join(dupes, ", "))
}
