package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauern/agentsync/internal/model"
	"github.com/klauern/agentsync/internal/util"
)

// Resolver turns a plugin source string into a plugin directory.
type Resolver interface {
	Resolve(ctx context.Context, spec string) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, spec string) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, spec string) (string, error) {
	return f(ctx, spec)
}

// SourceResolver dispatches on the kind of source: local paths, remote git
// repositories and marketplace references.
type SourceResolver struct {
	// BaseDir anchors relative local paths, normally the sync root.
	BaseDir   string
	Fetcher   *Fetcher
	Registrar *Registrar
}

// NewSourceResolver returns a resolver anchored at baseDir.
func NewSourceResolver(baseDir string, fetcher *Fetcher, registrar *Registrar) *SourceResolver {
	return &SourceResolver{BaseDir: baseDir, Fetcher: fetcher, Registrar: registrar}
}

// Resolve returns the absolute plugin directory for spec.
func (r *SourceResolver) Resolve(ctx context.Context, spec string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src := model.ParseSource(spec)
	switch src.Kind {
	case model.SourceGit:
		return r.resolveGit(ctx, src)
	case model.SourceMarketplace:
		return r.resolveMarketplace(ctx, src)
	default:
		dir, err := r.resolveLocal(spec)
		if err == nil {
			return dir, nil
		}
		// owner/repo shorthand for GitHub when no such local directory exists.
		if gh, ok := model.GitHubShorthand(spec); ok && r.Fetcher != nil {
			return r.resolveGit(ctx, model.ParseSource(gh))
		}
		return "", err
	}
}

func (r *SourceResolver) resolveLocal(spec string) (string, error) {
	path := util.ExpandPath(spec, r.BaseDir)
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", spec, err)
	}
	return requireDir(abs)
}

func (r *SourceResolver) resolveGit(ctx context.Context, src model.PluginSource) (string, error) {
	if r.Fetcher == nil {
		return "", fmt.Errorf("remote plugin %q requires a fetcher", src.Raw)
	}
	repo, err := r.Fetcher.Ensure(ctx, src)
	if err != nil {
		return "", err
	}
	return requireDir(filepath.Join(repo, filepath.FromSlash(src.Subpath)))
}

func (r *SourceResolver) resolveMarketplace(ctx context.Context, src model.PluginSource) (string, error) {
	if r.Registrar == nil {
		return "", fmt.Errorf("marketplace plugin %q requires a registrar", src.Raw)
	}
	dir, err := r.Registrar.Dir(ctx, src)
	if err != nil {
		return "", err
	}
	manifest, err := ReadMarketplace(dir)
	if err != nil {
		return "", err
	}
	ref, ok := manifest.Find(src.Plugin)
	if !ok {
		return "", fmt.Errorf("plugin %q not found in marketplace %q", src.Plugin, src.Marketplace)
	}

	spec := ref.Source.Spec(manifest.Root(dir))
	if ref.Source.Repo != "" || ref.Source.URL != "" {
		return r.resolveGit(ctx, model.ParseSource(spec))
	}
	return requireDir(spec)
}

func requireDir(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("plugin directory %s does not exist", path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", path)
	}
	return path, nil
}
