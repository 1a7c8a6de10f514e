package mask

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type stripLayout struct {
	Corners [][2]float64 `yaml:"corners"`
}

type layoutFile struct {
	Strips []stripLayout `yaml:"strips"`
}

// Store persists the strip layout to a YAML file.
type Store struct {
	path   string
	logger *zap.Logger
}

func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the layout from disk. A missing or malformed file falls back to
// the default rectangular layout for the given canvas.
func (s *Store) Load(canvasW, canvasH int) [StripCount]StripMask {
	defaults := DefaultMasks(canvasW, canvasH)

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Info("No mask layout found, using defaults", zap.String("path", s.path))
		return defaults
	}

	var f layoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		s.logger.Error("Failed to parse mask layout, using defaults",
			zap.String("path", s.path), zap.Error(err))
		return defaults
	}

	masks := defaults
	for i, strip := range f.Strips {
		if i >= StripCount {
			break
		}
		if len(strip.Corners) != 4 {
			s.logger.Warn("Strip does not have exactly 4 corners, keeping default",
				zap.Int("strip", i), zap.Int("corners", len(strip.Corners)))
			continue
		}
		m := StripMask{Index: i}
		for j, c := range strip.Corners {
			m.Corners[j] = Point{X: c[0], Y: c[1]}
		}
		masks[i] = m
	}

	s.logger.Info("Loaded mask layout", zap.String("path", s.path))
	return masks
}

// Save writes the layout to disk, creating the parent directory if needed.
func (s *Store) Save(masks [StripCount]StripMask) error {
	f := layoutFile{Strips: make([]stripLayout, 0, StripCount)}
	for _, m := range masks {
		strip := stripLayout{Corners: make([][2]float64, 0, 4)}
		for _, c := range m.Corners {
			strip.Corners = append(strip.Corners, [2]float64{c.X, c.Y})
		}
		f.Strips = append(f.Strips, strip)
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to marshal mask layout: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create layout directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mask layout: %w", err)
	}

	s.logger.Info("Saved mask layout", zap.String("path", s.path))
	return nil
}
