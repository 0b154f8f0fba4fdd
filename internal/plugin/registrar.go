package plugin

import (
	"context"
	"fmt"
	"os"

	"github.com/klauern/agentsync/internal/logging"
	"github.com/klauern/agentsync/internal/model"
)

// Registrar makes sure marketplaces referenced by plugin specs are
// registered and available locally. Results are memoized per marketplace.
type Registrar struct {
	Registry *Registry
	Fetcher  *Fetcher
	Cache    *Cache
}

// NewRegistrar returns a Registrar with a fresh cache.
func NewRegistrar(registry *Registry, fetcher *Fetcher) *Registrar {
	return &Registrar{Registry: registry, Fetcher: fetcher, Cache: NewCache()}
}

// EnsureRegistered registers the marketplace of every marketplace-kind
// source, deduplicated by marketplace. It returns the failure per source;
// sources that succeeded or are not marketplace references are absent.
func (r *Registrar) EnsureRegistered(ctx context.Context, sources []string) map[string]error {
	failures := make(map[string]error)
	for _, raw := range sources {
		src := model.ParseSource(raw)
		if src.Kind != model.SourceMarketplace {
			continue
		}
		if _, err := r.Dir(ctx, src); err != nil {
			failures[raw] = err
		}
	}
	return failures
}

// Dir returns the local directory of src's marketplace, fetching and
// registering it on first use.
func (r *Registrar) Dir(ctx context.Context, src model.PluginSource) (string, error) {
	return r.Cache.Do("marketplace:"+src.Marketplace, func() (string, error) {
		return r.ensure(ctx, src)
	})
}

func (r *Registrar) ensure(ctx context.Context, src model.PluginSource) (string, error) {
	m, ok, err := r.Registry.Lookup(src.Marketplace)
	if err != nil {
		return "", err
	}
	if ok {
		if _, err := os.Stat(m.Path); err == nil {
			return m.Path, nil
		}
		if !src.IsRemote() {
			return "", fmt.Errorf("marketplace %q is registered at %s, which no longer exists", src.Marketplace, m.Path)
		}
	}
	if !src.IsRemote() {
		return "", fmt.Errorf("marketplace %q is not registered", src.Marketplace)
	}
	if r.Fetcher == nil {
		return "", fmt.Errorf("marketplace %q is not registered and no fetcher is configured", src.Marketplace)
	}

	dir, err := r.Fetcher.Ensure(ctx, src)
	if err != nil {
		return "", err
	}
	manifest, err := ReadMarketplace(dir)
	if err != nil {
		return "", err
	}
	if err := r.Registry.Add(src.Marketplace, Marketplace{
		Name:   manifest.Name,
		Source: src.Marketplace,
		Path:   dir,
	}); err != nil {
		return "", err
	}
	logging.Info("registered marketplace",
		logging.Plugin(src.Marketplace),
		logging.Path(dir),
	)
	return dir, nil
}
