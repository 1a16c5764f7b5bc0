package bus

import (
	"fmt"
	"sort"
	"strings"
)

// Factory builds a consumer of one kind. Transport packages contribute factories to the
// "consumers" fx value group.
type Factory struct {
	Kind string
	New  func() (Consumer, error)
}

// Logger defines the logging surface of consumer selection.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
}

// New builds the consumer whose factory matches cfg.Kind.
func New(cfg Config, factories []Factory, logger Logger) (Consumer, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if kind == "" {
		kind = KindKafka
	}

	available := make([]string, 0, len(factories))
	for _, f := range factories {
		if f.Kind == kind {
			c, err := f.New()
			if err != nil {
				return nil, fmt.Errorf("creating %s consumer: %w", kind, err)
			}
			logger.Info("message bus selected", nil, map[string]interface{}{"kind": kind})
			return c, nil
		}
		available = append(available, f.Kind)
	}
	sort.Strings(available)
	return nil, fmt.Errorf("unsupported bus kind %q (available: %s)", kind, strings.Join(available, ", "))
}
