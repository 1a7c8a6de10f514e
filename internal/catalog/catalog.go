// Package catalog inventories the video assets available to the player.
// The catalog is populated once at startup and read-only afterwards.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var supportedExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
}

// IsSupportedVideo reports whether the file name carries a playable extension.
func IsSupportedVideo(name string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(name))]
}

// Asset describes one playable video. Immutable after load.
type Asset struct {
	ID       string  `json:"id"`
	Path     string  `json:"path"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Duration float64 `json:"duration"`
}

// Metadata is the probe result for one file.
type Metadata struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
}

// Prober extracts static metadata from a media file. Implemented by the
// decode backend.
type Prober interface {
	Probe(path string) (Metadata, error)
}

// Catalog indexes assets by filename-stem id.
type Catalog struct {
	logger *zap.Logger
	prober Prober
	cache  *Cache
	assets map[string]Asset
	ids    []string
}

func New(prober Prober, cache *Cache, logger *zap.Logger) *Catalog {
	return &Catalog{
		logger: logger,
		prober: prober,
		cache:  cache,
		assets: make(map[string]Asset),
	}
}

// Load scans the given directories for supported media files and probes each
// one. A file whose metadata cannot be read is skipped and logged, never
// fatal to the catalog.
func (c *Catalog) Load(dirs []string) error {
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			c.logger.Warn("Skipping media directory", zap.String("dir", dir), zap.Error(err))
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !IsSupportedVideo(entry.Name()) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil {
				c.logger.Warn("Failed to stat media file", zap.String("path", path), zap.Error(err))
				continue
			}

			meta, err := c.probe(path, info.Size(), info.ModTime().Unix())
			if err != nil {
				c.logger.Warn("Failed to probe media file, skipping",
					zap.String("path", path), zap.Error(err))
				continue
			}

			id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			c.assets[id] = Asset{
				ID:       id,
				Path:     path,
				Width:    meta.Width,
				Height:   meta.Height,
				FPS:      meta.FPS,
				Duration: meta.Duration,
			}
			c.logger.Info("Cataloged video",
				zap.String("id", id),
				zap.Int("width", meta.Width),
				zap.Int("height", meta.Height),
				zap.Float64("fps", meta.FPS),
				zap.Float64("duration", meta.Duration),
			)
		}
	}

	c.ids = make([]string, 0, len(c.assets))
	for id := range c.assets {
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)

	c.logger.Info("Catalog load complete", zap.Int("assets", len(c.assets)))
	return nil
}

// probe consults the sqlite cache first; a cache failure degrades to probing.
func (c *Catalog) probe(path string, size, mtime int64) (Metadata, error) {
	if c.cache != nil {
		if meta, ok := c.cache.Lookup(path, size, mtime); ok {
			return meta, nil
		}
	}

	meta, err := c.prober.Probe(path)
	if err != nil {
		return Metadata{}, err
	}

	if c.cache != nil {
		if err := c.cache.Store(path, size, mtime, meta); err != nil {
			c.logger.Debug("Probe cache store failed", zap.String("path", path), zap.Error(err))
		}
	}
	return meta, nil
}

// Get returns the asset for id.
func (c *Catalog) Get(id string) (Asset, bool) {
	a, ok := c.assets[id]
	return a, ok
}

// Has reports whether an asset with the given id exists.
func (c *Catalog) Has(id string) bool {
	_, ok := c.assets[id]
	return ok
}

// IDs returns all asset ids in sorted order.
func (c *Catalog) IDs() []string {
	return c.ids
}

// Len returns the number of cataloged assets.
func (c *Catalog) Len() int {
	return len(c.assets)
}

// FallbackAmbient returns the default video id: the first id starting with
// "ambient", else the first id of any kind, else none.
func (c *Catalog) FallbackAmbient() (string, bool) {
	for _, id := range c.ids {
		if strings.HasPrefix(id, "ambient") {
			return id, true
		}
	}
	if len(c.ids) > 0 {
		return c.ids[0], true
	}
	return "", false
}
