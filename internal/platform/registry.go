package platform

import (
	"fmt"

	"github.com/adsynq/adsynq/internal/models"
)

// Registry holds the providers of the enabled platforms.
type Registry struct {
	providers map[models.Platform]Provider
}

// NewRegistry registers providers by their platform.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[models.Platform]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Platform()] = p
	}
	return r
}

// Get returns the provider of p.
func (r *Registry) Get(p models.Platform) (Provider, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
	}
	prov, ok := r.providers[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlatformDisabled, p)
	}
	return prov, nil
}

// Enabled lists the registered platforms in canonical order.
func (r *Registry) Enabled() []models.Platform {
	out := make([]models.Platform, 0, len(r.providers))
	for _, p := range models.Platforms {
		if _, ok := r.providers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
