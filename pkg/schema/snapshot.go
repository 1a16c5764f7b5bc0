package schema

import "sort"

type field struct {
	kind Kind
	core bool
}

// Snapshot is an immutable view of the schema. Readers obtain one from Registry.Snapshot
// and use it for the whole of a record's validation.
type Snapshot struct {
	fields map[string]field
	tags   map[string]struct{}
}

// NewSnapshot builds a snapshot from explicit role sets. A name declared in both core
// and extra is kept as core.
func NewSnapshot(core, extra map[string]Kind, tags []string) *Snapshot {
	s := &Snapshot{
		fields: make(map[string]field, len(core)+len(extra)),
		tags:   make(map[string]struct{}, len(tags)),
	}
	for name, k := range extra {
		s.fields[name] = field{kind: k}
	}
	for name, k := range core {
		s.fields[name] = field{kind: k, core: true}
	}
	for _, name := range tags {
		s.tags[name] = struct{}{}
	}
	return s
}

// TypeOf returns the declared kind of name and whether name is declared at all.
func (s *Snapshot) TypeOf(name string) (Kind, bool) {
	f, ok := s.fields[name]
	return f.kind, ok
}

// IsTag reports whether name is a categorical field.
func (s *Snapshot) IsTag(name string) bool {
	_, ok := s.tags[name]
	return ok
}

// IsCore reports whether name is a required field.
func (s *Snapshot) IsCore(name string) bool {
	return s.fields[name].core
}

// IsAllowed reports whether name is declared as core or extra.
func (s *Snapshot) IsAllowed(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// CoreFields returns the required field names in sorted order.
func (s *Snapshot) CoreFields() []string {
	out := make([]string, 0, len(s.fields))
	for name, f := range s.fields {
		if f.core {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// AllowedFields returns core ∪ extra in sorted order.
func (s *Snapshot) AllowedFields() []string {
	out := make([]string, 0, len(s.fields))
	for name := range s.fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Tags returns the tag field names in sorted order.
func (s *Snapshot) Tags() []string {
	out := make([]string, 0, len(s.tags))
	for name := range s.tags {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
