package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// kindAliases maps accepted kind names to their canonical kind. The set of
// keys is the permitted classical-tabular model catalog; anything outside
// it is rejected at task construction.
var kindAliases = map[string]Kind{
	"sgd_classifier":      KindSGDClassifier,
	"logistic_regression": KindSGDClassifier,
	"decision_tree":       KindDecisionTree,
	"random_forest":       KindRandomForest,
}

// permittedKinds is the allowed set of estimator families for tabular
// binary classification.
var permittedKinds = map[Kind]bool{
	KindSGDClassifier: true,
	KindDecisionTree:  true,
	KindRandomForest:  true,
}

// IsPermitted reports whether a kind belongs to the allowed classical
// tabular-classification set.
func IsPermitted(k Kind) bool {
	return permittedKinds[k]
}

// New constructs a model handle with default hyperparameters for the given
// kind name or alias.
func New(kind string) (Model, error) {
	canonical, ok := kindAliases[kind]
	if !ok {
		return nil, fmt.Errorf("unknown model kind %q, permitted kinds are %v", kind, kindNames())
	}
	switch canonical {
	case KindSGDClassifier:
		return NewSGDClassifier(), nil
	case KindDecisionTree:
		return NewDecisionTreeClassifier(), nil
	case KindRandomForest:
		return NewRandomForestClassifier(), nil
	}
	return nil, fmt.Errorf("no constructor for kind %q", canonical)
}

func kindNames() []string {
	return []string{"sgd_classifier", "logistic_regression", "decision_tree", "random_forest"}
}

// Spec identifies one model to register with a task: either a catalog kind
// name, or a pre-built handle. Name defaults to the kind when empty.
// ConfigPath optionally points to a YAML file of hyperparameter overrides.
type Spec struct {
	Kind       string
	Name       string
	Handle     Model
	ConfigPath string
}

// ByKind builds a spec from a catalog kind name.
func ByKind(kind string) Spec {
	return Spec{Kind: kind}
}

// ByHandle builds a spec from a pre-built handle registered under name.
func ByHandle(name string, handle Model) Spec {
	return Spec{Name: name, Handle: handle}
}

// PrepareModels normalizes model specs into a registry, constructing
// handles for kind names and applying YAML hyperparameter configs.
func PrepareModels(specs ...Spec) (*Registry, error) {
	registry := NewRegistry()
	for _, spec := range specs {
		handle := spec.Handle
		var err error
		if handle == nil {
			if spec.Kind == "" {
				return nil, fmt.Errorf("model spec needs a kind or a handle")
			}
			handle, err = New(spec.Kind)
			if err != nil {
				return nil, err
			}
		}
		if spec.ConfigPath != "" {
			params, err := LoadParamsFile(spec.ConfigPath)
			if err != nil {
				return nil, err
			}
			if err := handle.SetParams(params); err != nil {
				return nil, fmt.Errorf("config %s: %w", spec.ConfigPath, err)
			}
		}
		name := spec.Name
		if name == "" {
			name = string(handle.Kind())
		}
		if err := registry.Add(name, handle); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// LoadParamsFile reads hyperparameters from a YAML file.
func LoadParamsFile(path string) (Params, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model config %s: %w", path, err)
	}
	var params Params
	if err := yaml.Unmarshal(payload, &params); err != nil {
		return nil, fmt.Errorf("failed to parse model config %s: %w", path, err)
	}
	return params, nil
}

// Registry is an insertion-ordered mapping from model name to handle.
type Registry struct {
	names  []string
	byName map[string]Model
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Model)}
}

// Add registers a handle under name. Names must be unique.
func (r *Registry) Add(name string, m Model) error {
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("a model named %q already exists", name)
	}
	r.names = append(r.names, name)
	r.byName[name] = m
	return nil
}

// Names returns the registered names in insertion order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Get returns the handle registered under name.
func (r *Registry) Get(name string) (Model, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Len returns the number of registered handles.
func (r *Registry) Len() int { return len(r.names) }

// Merge adds every entry of other into r. Fails without mutating r when any
// name collides.
func (r *Registry) Merge(other *Registry) error {
	for _, name := range other.names {
		if _, exists := r.byName[name]; exists {
			return fmt.Errorf("a model named %q already exists", name)
		}
	}
	for _, name := range other.names {
		r.names = append(r.names, name)
		r.byName[name] = other.byName[name]
	}
	return nil
}

// asFloat coerces YAML- and search-space-sourced numeric values.
func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

// asInt coerces YAML- and search-space-sourced integer values.
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}
