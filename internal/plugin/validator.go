// Package plugin resolves configured plugin sources to directories. Local
// paths, remote git repositories and marketplace references are supported.
// Validation is all-or-nothing: one unresolvable source fails the whole set.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/model"
)

// Spec is one configured plugin.
type Spec struct {
	Source string
	// Alias overrides the plugin name used for skill disambiguation.
	Alias string
}

// SourceError is a single source that failed to resolve.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// ResolutionError lists every source that failed to resolve.
type ResolutionError struct {
	Failures []*SourceError
}

func (e *ResolutionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d plugin source(s) could not be resolved:", len(e.Failures))
	for _, f := range e.Failures {
		sb.WriteString("\n  - ")
		sb.WriteString(f.Error())
	}
	return sb.String()
}

// Unwrap returns each failure.
func (e *ResolutionError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Sources returns the failing source strings in configuration order.
func (e *ResolutionError) Sources() []string {
	out := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Source
	}
	return out
}

// Validator resolves every configured plugin or none.
type Validator struct {
	Resolver Resolver
	// Concurrency bounds parallel resolution. Zero means 4.
	Concurrency int
}

// NewValidator returns a Validator for resolver.
func NewValidator(resolver Resolver) *Validator {
	return &Validator{Resolver: resolver}
}

// Validate resolves every spec. It returns the resolved plugins in
// configuration order, or a *ResolutionError naming each failing source.
// Specs repeating an earlier source are dropped and reported as warnings.
// It never writes to the sync root.
func (v *Validator) Validate(ctx context.Context, specs []Spec) ([]model.ResolvedPlugin, []string, error) {
	var warnings []string
	unique := make([]Spec, 0, len(specs))
	seen := make(map[string]Spec)
	for _, s := range specs {
		key := strings.TrimSpace(s.Source)
		if prev, dup := seen[key]; dup {
			warnings = append(warnings, fmt.Sprintf(
				"plugin %q is configured more than once; keeping %s", s.Source, describe(prev)))
			continue
		}
		seen[key] = s
		unique = append(unique, s)
	}

	limit := v.Concurrency
	if limit <= 0 {
		limit = 4
	}

	paths := make([]string, len(unique))
	errs := make([]error, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, s := range unique {
		g.Go(func() error {
			paths[i], errs[i] = v.Resolver.Resolve(gctx, s.Source)
			return nil
		})
	}
	_ = g.Wait()

	var failures []*SourceError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, &SourceError{Source: unique[i].Source, Err: err})
		}
	}
	if len(failures) > 0 {
		return nil, warnings, &ResolutionError{Failures: failures}
	}

	resolved := make([]model.ResolvedPlugin, len(unique))
	for i, s := range unique {
		name, err := pluginName(s, paths[i])
		if err != nil {
			warnings = append(warnings, err.Error())
		}
		resolved[i] = model.ResolvedPlugin{Spec: s.Source, Path: paths[i], Name: name}
		logging.Debug("resolved plugin",
			logging.Plugin(name),
			logging.Path(paths[i]),
		)
	}
	return resolved, warnings, nil
}

// pluginName prefers the alias, then the manifest name, then the marketplace
// plugin name, then the directory name. A broken manifest falls through with
// an error describing it.
func pluginName(s Spec, dir string) (string, error) {
	if s.Alias != "" {
		return s.Alias, nil
	}
	m, err := ReadManifest(dir)
	if err == nil && m != nil && strings.TrimSpace(m.Name) != "" {
		return strings.TrimSpace(m.Name), nil
	}
	if src := model.ParseSource(s.Source); src.Kind == model.SourceMarketplace {
		return src.Plugin, err
	}
	return filepath.Base(dir), err
}

func describe(s Spec) string {
	if s.Alias != "" {
		return fmt.Sprintf("the first registration (alias %q)", s.Alias)
	}
	return "the first registration"
}

// IsResolutionError reports whether err is or wraps a *ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
