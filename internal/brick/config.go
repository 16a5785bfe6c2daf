package brick

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/ericcurtin/llamanetes/internal/common/fsutil"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

// ConfigBrick actions accepted in the invoke input.
const (
	ActionLoad = "load"
	ActionSave = "save"
	ActionGet  = "get"
	ActionSet  = "set"
	ActionList = "list"
)

// ConfigBrick manages a flat JSON key/value store backed by one file.
// In-memory state and on-disk state may diverge until an explicit save; load
// replaces the in-memory state wholly, and leaves it untouched on failure.
type ConfigBrick struct {
	name string
	path string

	mu     sync.Mutex
	values map[string]any
}

func NewConfigBrick(path string) (*ConfigBrick, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrConstruction("config path is empty")
	}
	if p, err := fsutil.ExpandHome(path); err == nil {
		path = p
	}
	return &ConfigBrick{name: "ConfigBrick", path: path, values: make(map[string]any)}, nil
}

func (c *ConfigBrick) Name() string { return c.name }

// Invoke dispatches on the "action" input key: load, save, get, set, list.
func (c *ConfigBrick) Invoke(ctx context.Context, in types.Input) (types.Result, error) {
	if err := ctx.Err(); err != nil {
		return types.Result{}, err
	}
	action := in.String("action")
	switch action {
	case ActionLoad:
		if err := c.Load(); err != nil {
			return types.Result{}, err
		}
		return success(c.name, map[string]any{"config": c.List()}), nil
	case ActionSave:
		if err := c.Save(); err != nil {
			return types.Result{}, err
		}
		return success(c.name, map[string]any{"path": c.path}), nil
	case ActionGet:
		v, err := c.Get(in.String("key"))
		if err != nil {
			return types.Result{}, err
		}
		return success(c.name, map[string]any{"key": in.String("key"), "value": v}), nil
	case ActionSet:
		c.Set(in.String("key"), in["value"])
		return success(c.name, map[string]any{"key": in.String("key")}), nil
	case ActionList:
		return success(c.name, map[string]any{"config": c.List()}), nil
	default:
		return types.Result{}, ErrInvalidOperation(action)
	}
}

// Load reads the backing file and replaces the in-memory mapping. On any
// failure (missing file, malformed JSON) the in-memory state is unchanged.
func (c *ConfigBrick) Load() error {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return ErrConfigLoad(err)
	}
	fresh := make(map[string]any)
	if err := json.Unmarshal(b, &fresh); err != nil {
		return ErrConfigLoad(err)
	}
	c.mu.Lock()
	c.values = fresh
	c.mu.Unlock()
	return nil
}

// Save writes the current in-memory mapping to the backing file.
func (c *ConfigBrick) Save() error {
	c.mu.Lock()
	b, err := json.MarshalIndent(c.values, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return ErrConfigSave(err)
	}
	if err := os.WriteFile(c.path, append(b, '\n'), 0o644); err != nil {
		return ErrConfigSave(err)
	}
	return nil
}

// Get returns the value for key or a key-not-found error.
func (c *ConfigBrick) Get(key string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return nil, ErrKeyNotFound(key)
	}
	return v, nil
}

// Set inserts or overwrites key. Value shape is not validated.
func (c *ConfigBrick) Set(key string, value any) {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

// List returns a copy of the full mapping.
func (c *ConfigBrick) List() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
