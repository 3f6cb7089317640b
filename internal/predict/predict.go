// Package predict fills in the fields a new task is created without:
// category and type from its text, an hours estimate and a priority.
//
// The models are read once from a YAML bundle and are immutable afterwards,
// so a single *Models can be shared by every request.
package predict

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abatilo/triage/internal/task"
)

//go:embed default_model.yaml
var defaultBundle []byte

// Bundle is the on-disk model format.
type Bundle struct {
	Version    int           `yaml:"version"`
	StopWords  []string      `yaml:"stop_words"`
	Categories LabelSet      `yaml:"categories"`
	Types      LabelSet      `yaml:"types"`
	Hours      HoursModel    `yaml:"hours"`
	Priority   PriorityModel `yaml:"priority"`
}

// LabelSet is an ordered list of labels with the label used when no keyword
// matches.
type LabelSet struct {
	Default string  `yaml:"default"`
	Labels  []Label `yaml:"labels"`
}

// Label is one class and the keywords that vote for it.
type Label struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// HoursModel estimates effort as a per-category base scaled by a per-type factor.
type HoursModel struct {
	Default    float64            `yaml:"default"`
	Minimum    float64            `yaml:"minimum"`
	Category   map[string]float64 `yaml:"category"`
	TypeFactor map[string]float64 `yaml:"type_factor"`
}

// PriorityModel is an ordered rule list; the first matching rule wins.
type PriorityModel struct {
	Default task.Priority  `yaml:"default"`
	Rules   []PriorityRule `yaml:"rules"`
}

// PriorityRule matches when every condition that is set holds.
type PriorityRule struct {
	Priority        task.Priority `yaml:"priority"`
	Overdue         *bool         `yaml:"overdue,omitempty"`
	MinHoursPerDay  *float64      `yaml:"min_hours_per_day,omitempty"`
	MaxExpectedDays *int          `yaml:"max_expected_days,omitempty"`
}

// Models groups the three predictors built from one bundle.
type Models struct {
	Classifier *Classifier
	Hours      *HoursEstimator
	Priority   *PriorityPredictor
	version    int
}

// Version returns the bundle version the models were built from.
func (m *Models) Version() int {
	return m.version
}

// Load reads a bundle from path. An empty path loads the embedded default.
func Load(path string) (*Models, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model bundle: %w", err)
	}
	return Parse(data)
}

// Default builds the models from the embedded bundle.
func Default() (*Models, error) {
	return Parse(defaultBundle)
}

// Parse decodes and validates a bundle.
func Parse(data []byte) (*Models, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("unmarshal model bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model bundle: %w", err)
	}

	tok := newTokenizer(b.StopWords)
	return &Models{
		Classifier: &Classifier{
			tok:        tok,
			categories: compileLabels(tok, b.Categories),
			types:      compileLabels(tok, b.Types),
		},
		Hours:    &HoursEstimator{model: b.Hours},
		Priority: &PriorityPredictor{model: b.Priority},
		version:  b.Version,
	}, nil
}

// Validate checks the bundle is usable.
func (b *Bundle) Validate() error {
	for name, set := range map[string]LabelSet{"categories": b.Categories, "types": b.Types} {
		if len(set.Labels) == 0 {
			return fmt.Errorf("%s: no labels", name)
		}
		if set.Default == "" {
			return fmt.Errorf("%s: default label is required", name)
		}
		for _, l := range set.Labels {
			if l.Name == "" {
				return fmt.Errorf("%s: label without a name", name)
			}
		}
	}
	if b.Hours.Default <= 0 {
		return fmt.Errorf("hours: default must be positive")
	}
	if !task.IsValidPriority(b.Priority.Default) {
		return fmt.Errorf("priority: invalid default %q", b.Priority.Default)
	}
	for i, r := range b.Priority.Rules {
		if !task.IsValidPriority(r.Priority) {
			return fmt.Errorf("priority: rule %d has invalid priority %q", i, r.Priority)
		}
	}
	return nil
}
