package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
)

// Logger defines the logging surface of the schema registry.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=schema
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
}

// Registry owns the current schema snapshot and reloads it from the configured files.
//
// The snapshot pointer is swapped atomically, so concurrent readers see either the old
// or the new schema in full. Loads are serialized among themselves.
type Registry struct {
	cfg     Config
	logger  Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	current atomic.Pointer[Snapshot]

	// last successfully read role sets, kept when a file later goes missing
	core  map[string]Kind
	extra map[string]Kind
	tags  []string
}

// NewRegistry creates a registry holding an empty snapshot. Call Load to read the files.
func NewRegistry(cfg Config, logger Logger, m *metrics.Metrics) *Registry {
	r := &Registry{
		cfg:     cfg.withDefaults(),
		logger:  logger,
		metrics: m,
	}
	r.current.Store(NewSnapshot(nil, nil, nil))
	return r
}

// Snapshot returns the schema currently in effect.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Load reads the three definition files and publishes a new snapshot.
//
// Load never fails because of the files themselves: a missing or unreadable file is
// logged and the role keeps whatever was loaded before (empty on first load), and an
// unknown type name is logged and treated as string.
func (r *Registry) Load() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if core, ok := r.readFields("core", r.cfg.CoreFieldsPath); ok {
		r.core = core
	}
	if extra, ok := r.readFields("extra", r.cfg.ExtraFieldsPath); ok {
		r.extra = extra
	}
	if tags, ok := r.readTags(r.cfg.TagFieldsPath); ok {
		r.tags = tags
	}

	for name := range r.extra {
		if _, dup := r.core[name]; dup {
			r.logger.Warn("field declared as both core and extra, keeping core", nil, map[string]interface{}{
				"field": name,
			})
		}
	}

	snap := NewSnapshot(r.core, r.extra, r.tags)
	r.current.Store(snap)

	r.metrics.SetSchemaFields("core", len(snap.CoreFields()))
	r.metrics.SetSchemaFields("extra", len(snap.AllowedFields())-len(snap.CoreFields()))
	r.metrics.SetSchemaFields("tag", len(r.tags))

	r.logger.Info("schema loaded", nil, map[string]interface{}{
		"core":  len(snap.CoreFields()),
		"extra": len(snap.AllowedFields()) - len(snap.CoreFields()),
		"tags":  len(r.tags),
	})
	return snap
}

// Reload re-reads the same files. It is the explicit reload entry point (SIGHUP).
func (r *Registry) Reload() *Snapshot {
	r.logger.Info("reloading schema", nil, nil)
	return r.Load()
}

func (r *Registry) readFields(role, path string) (map[string]Kind, bool) {
	raw := map[string]string{}
	if !r.readYAML(role, path, &raw) {
		return nil, false
	}

	fields := make(map[string]Kind, len(raw))
	for name, typeName := range raw {
		k, ok := ParseKind(typeName)
		if !ok {
			r.logger.Warn("unknown field type, defaulting to string", nil, map[string]interface{}{
				"field": name,
				"type":  typeName,
				"role":  role,
			})
		}
		fields[name] = k
	}
	return fields, true
}

func (r *Registry) readTags(path string) ([]string, bool) {
	var doc yaml.Node
	if !r.readYAML("tag", path, &doc) {
		return nil, false
	}
	tags, err := tagNames(&doc)
	if err != nil {
		r.logger.Warn("cannot parse tag fields", err, map[string]interface{}{"path": path})
		return nil, false
	}
	return tags, true
}

func (r *Registry) readYAML(role, path string, out interface{}) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		abs, _ := filepath.Abs(path)
		msg := "cannot read schema file"
		if errors.Is(err, os.ErrNotExist) {
			msg = "schema file not found"
		}
		r.logger.Warn(msg, err, map[string]interface{}{"role": role, "path": abs})
		return false
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		r.logger.Warn("cannot parse schema file", err, map[string]interface{}{"role": role, "path": path})
		return false
	}
	return true
}

// tagNames accepts a sequence of names or a mapping keyed by name.
func tagNames(doc *yaml.Node) ([]string, error) {
	node := doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, nil
		}
		node = node.Content[0]
	}
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return nil, err
		}
		return names, nil
	case yaml.MappingNode:
		names := make([]string, 0, len(node.Content)/2)
		for i := 0; i < len(node.Content); i += 2 {
			names = append(names, node.Content[i].Value)
		}
		return names, nil
	}
	return nil, fmt.Errorf("expected a sequence or mapping of tag names, got %s", node.ShortTag())
}
