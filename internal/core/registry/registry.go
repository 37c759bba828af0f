// internal/core/registry/registry.go
package registry

import (
	"context"
	"sort"
	"time"

	"forex-quotes-streamer/internal/core/domain/quotes"
	"forex-quotes-streamer/pkg/logger"
)

// AssetLister - узкий интерфейс хранилища для загрузки инструментов
type AssetLister interface {
	ListAssets(ctx context.Context) (map[int]string, error)
}

// Registry - статический справочник инструментов, загружается один раз при старте
// и после этого только читается
type Registry struct {
	byID   map[int]quotes.Asset
	byName map[string]quotes.Asset
}

// New создает новый Registry из отображения id -> символ
func New(assets map[int]string) *Registry {
	r := &Registry{
		byID:   make(map[int]quotes.Asset, len(assets)),
		byName: make(map[string]quotes.Asset, len(assets)),
	}
	for id, name := range assets {
		asset := quotes.Asset{ID: id, Name: name}
		r.byID[id] = asset
		r.byName[name] = asset
	}
	return r
}

// ByID возвращает инструмент по идентификатору
func (r *Registry) ByID(id int) (quotes.Asset, bool) {
	asset, ok := r.byID[id]
	return asset, ok
}

// ByName возвращает инструмент по символу
func (r *Registry) ByName(name string) (quotes.Asset, bool) {
	asset, ok := r.byName[name]
	return asset, ok
}

// Symbols возвращает отображение символ -> id для сопоставления записей фида
func (r *Registry) Symbols() map[string]int {
	symbols := make(map[string]int, len(r.byName))
	for name, asset := range r.byName {
		symbols[name] = asset.ID
	}
	return symbols
}

// All возвращает все инструменты, отсортированные по id
func (r *Registry) All() []quotes.Asset {
	assets := make([]quotes.Asset, 0, len(r.byID))
	for _, asset := range r.byID {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].ID < assets[j].ID
	})
	return assets
}

// Len возвращает количество инструментов
func (r *Registry) Len() int {
	return len(r.byID)
}

// WaitForAssets опрашивает хранилище до появления хотя бы одного инструмента.
// Ошибки хранилища и пустой результат приводят к повторной попытке через pollInterval.
func WaitForAssets(ctx context.Context, store AssetLister, pollInterval time.Duration) (*Registry, error) {
	for {
		assets, err := store.ListAssets(ctx)
		if err != nil {
			logger.Warn("⚠️ Не удалось загрузить инструменты: %v", err)
		} else if len(assets) > 0 {
			logger.Info("✅ Загружено инструментов: %d", len(assets))
			return New(assets), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
