package curriculum

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed seed/*.yaml
var seedFS embed.FS

// Loader loads and caches the seed curriculum and hot-topic list.
type Loader struct {
	fsys      fs.FS
	areas     []Area
	areaIndex map[string]int
	hotTopics []HotTopic
	mu        sync.RWMutex
}

// NewLoader loads seed content from rootDir, or from the embedded seed when
// rootDir is empty.
func NewLoader(rootDir string) (*Loader, error) {
	var fsys fs.FS
	if rootDir == "" {
		sub, err := fs.Sub(seedFS, "seed")
		if err != nil {
			return nil, fmt.Errorf("opening embedded seed: %w", err)
		}
		fsys = sub
	} else {
		fsys = os.DirFS(rootDir)
	}
	return NewLoaderFS(fsys)
}

// NewLoaderFS loads seed content from an arbitrary filesystem.
func NewLoaderFS(fsys fs.FS) (*Loader, error) {
	l := &Loader{
		fsys:      fsys,
		areaIndex: make(map[string]int),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}

	slog.Info("curriculum loaded", "areas", len(l.areas), "hot_topics", len(l.hotTopics))
	return l, nil
}

// Areas returns a copy of the seed areas in file order.
func (l *Loader) Areas() []Area {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAreas(l.areas)
}

// GetArea returns a seed area by ID.
func (l *Loader) GetArea(id string) (Area, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.areaIndex[id]
	if !ok {
		return Area{}, false
	}
	return cloneArea(l.areas[i]), true
}

// HotTopics returns a copy of the seed hot-topic list.
func (l *Loader) HotTopics() []HotTopic {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]HotTopic(nil), l.hotTopics...)
}

func (l *Loader) loadAll() error {
	return fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if strings.HasPrefix(path.Base(p), "_") {
			return nil // Drafts and fixtures
		}
		return l.loadSeed(p)
	})
}

func (l *Loader) loadSeed(p string) error {
	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return err
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		slog.Warn("skipping invalid seed YAML", "path", p, "error", err)
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, a := range seed.Areas {
		if a.ID == "" {
			continue
		}
		for i := range a.Topics {
			if a.Topics[i].Status == "" {
				a.Topics[i].Status = StatusNotStarted
			}
		}
		if i, ok := l.areaIndex[a.ID]; ok {
			// Later files extend an area declared earlier.
			l.areas[i].Topics = append(l.areas[i].Topics, a.Topics...)
			continue
		}
		l.areaIndex[a.ID] = len(l.areas)
		l.areas = append(l.areas, a)
	}
	for _, h := range seed.HotTopics {
		if h.Name == "" {
			continue
		}
		l.hotTopics = append(l.hotTopics, h)
	}
	return nil
}
