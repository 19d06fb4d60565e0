package stock

import (
	"errors"
	"fmt"
	"sort"

	"trendlens-backend/internal/components/assert"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/components/throttle"
	"trendlens-backend/internal/components/transport"
	"trendlens-backend/internal/components/useragent"

	"github.com/antzucaro/matchr"
)

var (
	ErrUnknownSource   = errors.New("unknown source")
	ErrDuplicateSource = errors.New("duplicate source")
)

// suggestions below this Jaro-Winkler similarity are not worth showing.
const suggestionThreshold = 0.7

// Registry maps source ids to their strategies. It does not change after construction.
type Registry struct {
	defs       map[SourceID]Definition
	strategies map[SourceID]strategy
}

func NewRegistry(defs []Definition, deps Deps, tel telemetry.API) (*Registry, error) {
	assert.NotNil(tel)
	assert.NotNil(deps.Reporter)

	if deps.UserAgents == nil {
		deps.UserAgents = useragent.NewPool(nil)
	}
	if deps.PageDelay == nil {
		deps.PageDelay = throttle.None()
	}
	if deps.RenderDelay == nil {
		deps.RenderDelay = throttle.None()
	}

	tel = telemetry.NewScopedAPI("stock", tel)

	r := &Registry{
		defs:       map[SourceID]Definition{},
		strategies: map[SourceID]strategy{},
	}
	for _, def := range defs {
		assert.NotEmptyStr(string(def.ID))
		if _, exists := r.defs[def.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, def.ID)
		}
		if def.SearchUrl == nil || len(def.Locators) == 0 {
			return nil, fmt.Errorf("source %s: search url and at least one locator are required", def.ID)
		}
		r.defs[def.ID] = def
		r.strategies[def.ID] = strategy{
			def:  def,
			deps: deps,
			tel:  telemetry.NewScopedAPI(string(def.ID), tel),
		}
	}
	return r, nil
}

// Lookup returns the strategy registered for `id` and the transport it needs.
func (r *Registry) Lookup(id SourceID) (Strategy, transport.Kind, error) {
	s, ok := r.strategies[id]
	if !ok {
		return nil, "", r.unknown(id)
	}
	return s, s.def.Transport, nil
}

// Validate checks that every id is registered, empty ids are ignored.
func (r *Registry) Validate(ids ...SourceID) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := r.defs[id]; !ok {
			return r.unknown(id)
		}
	}
	return nil
}

func (r *Registry) unknown(id SourceID) error {
	best := ""
	bestScore := 0.0
	for _, known := range r.IDs() {
		score := matchr.JaroWinkler(string(id), string(known), false)
		if score > bestScore {
			best = string(known)
			bestScore = score
		}
	}
	if bestScore >= suggestionThreshold {
		return fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownSource, id, best)
	}
	return fmt.Errorf("%w: %q", ErrUnknownSource, id)
}

// IDs returns the registered ids in lexical order.
func (r *Registry) IDs() []SourceID {
	ids := make([]SourceID, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// Definitions returns the registered sources in lexical order of their ids.
func (r *Registry) Definitions() []Definition {
	ids := r.IDs()
	out := make([]Definition, len(ids))
	for i, id := range ids {
		out[i] = r.defs[id]
	}
	return out
}
