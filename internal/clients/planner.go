// Package clients groups configured clients that resolve to the same output
// path, so each shared directory is written once and owned by every member.
package clients

import (
	"github.com/klauern/agentsync/internal/model"
)

// Plan is the grouping of clients for one content kind.
type Plan struct {
	Kind model.ContentKind
	// Representatives are the clients that materialize, in configuration order.
	Representatives []model.Client
	// Groups maps a representative to every member sharing its path,
	// representative first.
	Groups map[model.Client][]model.Client
	// Paths maps a representative to its output path for Kind.
	Paths map[model.Client]string
}

// Build groups clients by exact equality of their output path for kind.
// The first client seen with a path represents it. Clients with an empty path
// or missing from the table form singleton groups.
func Build(clients []model.Client, table model.MappingTable, kind model.ContentKind) *Plan {
	p := &Plan{
		Kind:   kind,
		Groups: make(map[model.Client][]model.Client),
		Paths:  make(map[model.Client]string),
	}

	byPath := make(map[string]model.Client)
	for _, c := range clients {
		if _, dup := p.Groups[c]; dup {
			continue
		}
		path := ""
		if m, ok := table.Lookup(c); ok {
			path = m.PathFor(kind)
		}

		if path != "" {
			if rep, ok := byPath[path]; ok {
				p.Groups[rep] = append(p.Groups[rep], c)
				continue
			}
			byPath[path] = c
		}
		p.Representatives = append(p.Representatives, c)
		p.Groups[c] = []model.Client{c}
		p.Paths[c] = path
	}
	return p
}

// Members returns the clients a representative writes for.
func (p *Plan) Members(rep model.Client) []model.Client {
	return p.Groups[rep]
}

// Path returns the output path of a representative ("" if it has none).
func (p *Plan) Path(rep model.Client) string {
	return p.Paths[rep]
}

// Active returns representatives that have an output path for the kind.
func (p *Plan) Active() []model.Client {
	var out []model.Client
	for _, c := range p.Representatives {
		if p.Paths[c] != "" {
			out = append(out, c)
		}
	}
	return out
}

// Set holds one Plan per content kind.
type Set map[model.ContentKind]*Plan

// BuildAll plans every per-plugin content kind plus the agent file.
func BuildAll(clients []model.Client, table model.MappingTable) Set {
	set := make(Set)
	for _, kind := range append(model.PluginKinds(), model.KindAgentFile) {
		set[kind] = Build(clients, table, kind)
	}
	return set
}

// FanOut expands paths produced by representatives to every group member.
// The member lists keep configuration order; paths keep production order.
func (s Set) FanOut(produced map[model.Client]map[model.ContentKind][]string) map[model.Client][]string {
	out := make(map[model.Client][]string)
	for rep, byKind := range produced {
		for kind, paths := range byKind {
			plan, ok := s[kind]
			if !ok {
				continue
			}
			members := plan.Members(rep)
			if len(members) == 0 {
				members = []model.Client{rep}
			}
			for _, m := range members {
				out[m] = append(out[m], paths...)
			}
		}
	}
	return out
}
