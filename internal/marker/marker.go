// Package marker holds the read-only map reference data: parking lots,
// toilets, stages and the like. Markers have no id; a screen refers to one by
// its position in the list it was given.
package marker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/sakif/hangang/internal/api"
	"github.com/sakif/hangang/internal/model"
)

type API interface {
	List(ctx context.Context) ([]model.Marker, error)
}

type Directory struct {
	api    API
	logger *slog.Logger

	mu      sync.RWMutex
	markers []model.Marker
}

func New(c *api.Client, logger *slog.Logger) *Directory {
	return NewWith(c.Markers(), logger)
}

func NewWith(a API, logger *slog.Logger) *Directory {
	return &Directory{api: a, logger: logger}
}

func (d *Directory) Load(ctx context.Context) error {
	items, err := d.api.List(ctx)
	if err != nil {
		return fmt.Errorf("marker: loading markers: %w", err)
	}
	d.mu.Lock()
	d.markers = items
	d.mu.Unlock()
	d.logger.Debug("markers loaded", slog.Int("count", len(items)))
	return nil
}

func (d *Directory) All() []model.Marker {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.markers)
}

// ByType returns the markers of one type in their original order.
func (d *Directory) ByType(typ string) []model.Marker {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []model.Marker
	for _, m := range d.markers {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

// Types lists the distinct marker types, sorted.
func (d *Directory) Types() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var types []string
	for _, m := range d.markers {
		if !slices.Contains(types, m.Type) {
			types = append(types, m.Type)
		}
	}
	slices.Sort(types)
	return types
}
