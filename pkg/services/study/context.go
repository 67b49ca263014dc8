package study

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Loader reads a dataset file into a table.
type Loader interface {
	Load(ctx context.Context, path string) (*dataset.Table, error)
}

// Context resolves keyword names for one study and serves its datasets. Datasets are
// loaded once per name and then served from memory.
type Context struct {
	cfg     *domain.StudyConfig
	loader  Loader
	dataDir string

	mu    sync.Mutex
	cache map[string]*dataset.Table
}

type Option func(*Context)

// WithDataDir resolves relative dataset paths against dir.
func WithDataDir(dir string) Option {
	return func(c *Context) {
		c.dataDir = dir
	}
}

func New(cfg *domain.StudyConfig, loader Loader, opts ...Option) *Context {
	c := &Context{
		cfg:    cfg,
		loader: loader,
		cache:  make(map[string]*dataset.Table),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Config() *domain.StudyConfig {
	return c.cfg
}

// Population returns the named population keyword.
func (c *Context) Population(name string) (domain.Keyword, error) {
	return find(domain.CategoryPopulation, c.cfg.Populations, name)
}

// Observation returns the named observation keyword. An empty name means the analysis
// has no observation window and resolves to an unrestricted keyword.
func (c *Context) Observation(name string) (domain.Keyword, error) {
	if name == "" {
		return domain.Keyword{}, nil
	}
	return find(domain.CategoryObservation, c.cfg.Observations, name)
}

func (c *Context) Parameter(name string) (domain.Keyword, error) {
	return find(domain.CategoryParameter, c.cfg.Parameters, name)
}

// ParameterInfo resolves a semicolon-joined parameter such as "any;rel;ser".
type ParameterInfo struct {
	Names   []string
	Filters []string
	Labels  []string
}

func (c *Context) ParameterInfo(param string) (ParameterInfo, error) {
	var info ParameterInfo
	for _, name := range domain.SplitParameters(param) {
		k, err := c.Parameter(name)
		if err != nil {
			return ParameterInfo{}, err
		}
		info.Names = append(info.Names, k.Name)
		info.Filters = append(info.Filters, k.Filter)
		info.Labels = append(info.Labels, k.DisplayLabel())
	}
	return info, nil
}

// GroupInfo is a resolved treatment grouping. A zero Column means no grouping.
type GroupInfo struct {
	Dataset string
	Column  string
	Label   string
	Levels  []string
}

// Group resolves a group keyword. An empty name resolves to no grouping.
func (c *Context) Group(name string) (GroupInfo, error) {
	if name == "" {
		return GroupInfo{}, nil
	}
	for _, g := range c.cfg.Groups {
		if g.Name == name {
			ds, col := g.Column()
			return GroupInfo{
				Dataset: ds,
				Column:  col,
				Label:   g.Label,
				Levels:  append([]string(nil), g.Levels...),
			}, nil
		}
	}
	return GroupInfo{}, &KeywordNotFoundError{Category: domain.CategoryGroup, Name: name}
}

// Dataset returns the named dataset, loading it on first use.
func (c *Context) Dataset(ctx context.Context, name string) (*dataset.Table, error) {
	key := strings.ToLower(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.cache[key]; ok {
		return t, nil
	}

	path, ok := c.dataPath(key)
	if !ok {
		return nil, &DatasetNotFoundError{Name: name}
	}
	path = c.resolve(path)

	zerolog.Ctx(ctx).Debug().Str("dataset", key).Str("path", path).Msg("loading dataset")
	t, err := c.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", key, err)
	}
	c.cache[key] = t
	return t, nil
}

// Datasets loads every named dataset, failing on the first one that is not
// configured or cannot be read.
func (c *Context) Datasets(ctx context.Context, names ...string) (map[string]*dataset.Table, error) {
	for _, name := range names {
		if _, ok := c.dataPath(name); !ok {
			return nil, &DatasetNotFoundError{Name: name}
		}
	}
	out := make(map[string]*dataset.Table, len(names))
	for _, name := range names {
		t, err := c.Dataset(ctx, name)
		if err != nil {
			return nil, err
		}
		out[strings.ToLower(name)] = t
	}
	return out, nil
}

func (c *Context) dataPath(name string) (string, bool) {
	for k, v := range c.cfg.Data {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func (c *Context) resolve(path string) string {
	if c.dataDir == "" || strings.Contains(path, "://") || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dataDir, path)
}

func find(category domain.KeywordCategory, keywords []domain.Keyword, name string) (domain.Keyword, error) {
	for _, k := range keywords {
		if k.Name == name {
			return k, nil
		}
	}
	return domain.Keyword{}, &KeywordNotFoundError{Category: category, Name: name}
}
