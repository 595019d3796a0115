// Package registry holds the static axis-model tables the diagnostics run
// against: per-axis native domains and per-domain prototype tables.
//
// The registry is read-only configuration. It ships with an embedded default
// seed and can be replaced by a project-local YAML file so designers can
// diagnose their own axis models.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/narrativekit/moodcheck/internal/model"
)

// ErrNotFound marks an unknown prototype id or domain. Fatal to the call
// that needed the lookup.
var ErrNotFound = errors.New("registry: not found")

//go:embed defaults.yaml
var defaultSeed []byte

// DefaultAxisDomain is assumed for axes absent from the seed's axis table.
var DefaultAxisDomain = model.AxisInterval{Min: -1, Max: 1}

// seedFile is the YAML shape of a registry seed.
type seedFile struct {
	Axes    map[string]seedInterval         `yaml:"axes"`
	Domains map[string]map[string]seedEntry `yaml:"domains"`
}

type seedInterval struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type seedEntry struct {
	Weights map[string]float64 `yaml:"weights"`
	Gates   []seedGate         `yaml:"gates,omitempty"`
}

type seedGate struct {
	Axis      string  `yaml:"axis"`
	Operator  string  `yaml:"operator"`
	Threshold float64 `yaml:"threshold"`
}

// Registry is an immutable in-memory axis-model table set.
type Registry struct {
	axes    map[string]model.AxisInterval
	domains map[string]map[string]model.Prototype
}

// Load parses a registry seed from YAML.
func Load(data []byte) (*Registry, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("registry: parsing seed: %w", err)
	}

	r := &Registry{
		axes:    make(map[string]model.AxisInterval, len(seed.Axes)),
		domains: make(map[string]map[string]model.Prototype, len(seed.Domains)),
	}
	for axis, iv := range seed.Axes {
		interval, err := model.NewAxisInterval(iv.Min, iv.Max)
		if err != nil {
			return nil, fmt.Errorf("registry: axis %q: %w", axis, err)
		}
		r.axes[axis] = interval
	}
	for domain, entries := range seed.Domains {
		table := make(map[string]model.Prototype, len(entries))
		for id, entry := range entries {
			proto := model.Prototype{ID: id, Weights: entry.Weights}
			for _, g := range entry.Gates {
				op := model.GateOperator(g.Operator)
				if err := model.ValidateOperator(op); err != nil {
					return nil, fmt.Errorf("registry: prototype %q: %w", id, err)
				}
				proto.Gates = append(proto.Gates, model.GateClause{
					Axis:      g.Axis,
					Operator:  op,
					Threshold: g.Threshold,
				})
			}
			table[id] = proto
		}
		r.domains[domain] = table
	}
	return r, nil
}

// LoadFile loads a registry seed from a YAML file on disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: reading seed file: %w", err)
	}
	return Load(data)
}

// LoadDefault loads the embedded default seed.
func LoadDefault() (*Registry, error) {
	return Load(defaultSeed)
}

// Prototype returns one prototype by domain and id.
func (r *Registry) Prototype(domain, id string) (model.Prototype, error) {
	table, ok := r.domains[domain]
	if !ok {
		return model.Prototype{}, fmt.Errorf("%w: domain %q", ErrNotFound, domain)
	}
	proto, ok := table[id]
	if !ok {
		return model.Prototype{}, fmt.Errorf("%w: prototype %q in domain %q", ErrNotFound, id, domain)
	}
	return proto, nil
}

// Prototypes returns every prototype of a domain.
func (r *Registry) Prototypes(domain string) (map[string]model.Prototype, error) {
	table, ok := r.domains[domain]
	if !ok {
		return nil, fmt.Errorf("%w: domain %q", ErrNotFound, domain)
	}
	out := make(map[string]model.Prototype, len(table))
	for id, proto := range table {
		out[id] = proto
	}
	return out, nil
}

// AxisDomain returns the native domain of an axis; axes missing from the
// seed default to [-1, 1].
func (r *Registry) AxisDomain(axis string) model.AxisInterval {
	if iv, ok := r.axes[axis]; ok {
		return iv
	}
	return DefaultAxisDomain
}

// AxisDomains returns the full axis domain table (copied).
func (r *Registry) AxisDomains() map[string]model.AxisInterval {
	out := make(map[string]model.AxisInterval, len(r.axes))
	for axis, iv := range r.axes {
		out[axis] = iv
	}
	return out
}

// Weights satisfies the recommendation builder's PrototypeSource capability.
// It searches every domain table; ids are unique across domains in practice.
func (r *Registry) Weights(id string) (map[string]float64, bool) {
	for _, domain := range r.DomainNames() {
		if proto, ok := r.domains[domain][id]; ok {
			return proto.Weights, true
		}
	}
	return nil, false
}

// DomainNames returns the available domains, sorted.
func (r *Registry) DomainNames() []string {
	names := make([]string, 0, len(r.domains))
	for name := range r.domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
