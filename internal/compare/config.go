package compare

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan is the ordered comparator configuration for a comparison run:
// which comparators apply to which models, in what order.
type Plan struct {
	byModel map[string][]Comparator
	models  []string
}

// Comparators returns the ordered comparator list for a model.
func (p *Plan) Comparators(model string) []Comparator {
	return p.byModel[model]
}

// Models returns the model names with configured comparators, in
// declaration order.
func (p *Plan) Models() []string {
	return p.models
}

// planFile is the YAML shape of a comparison plan:
//
//	comparators:
//	  User:
//	    - kind: DateUpdatedComparator
//	      fields: [date_updated]
//	    - kind: EmailObfuscatingComparator
//	      fields: [email, alternate_emails]
type planFile struct {
	Comparators yaml.Node `yaml:"comparators"`
}

type comparatorSpec struct {
	Kind   string   `yaml:"kind"`
	Fields []string `yaml:"fields"`
}

// LoadPlan reads a comparison plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	plan, err := ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", path, err)
	}
	return plan, nil
}

// ParsePlan parses a comparison plan from YAML bytes. The mapping under
// `comparators` is walked via yaml.Node to preserve model declaration
// order, which fixes the comparator application order in reports.
func ParsePlan(data []byte) (*Plan, error) {
	var file planFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if file.Comparators.Kind == 0 {
		return nil, fmt.Errorf("parse plan: comparators section is required")
	}
	if file.Comparators.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse plan: comparators must be a mapping of model name to comparator list")
	}

	plan := &Plan{byModel: make(map[string][]Comparator)}
	content := file.Comparators.Content
	for i := 0; i+1 < len(content); i += 2 {
		model := content[i].Value
		var specs []comparatorSpec
		if err := content[i+1].Decode(&specs); err != nil {
			return nil, fmt.Errorf("parse plan: model %s: %w", model, err)
		}
		if _, dup := plan.byModel[model]; dup {
			return nil, fmt.Errorf("parse plan: duplicate model %s", model)
		}
		cmps := make([]Comparator, 0, len(specs))
		for _, spec := range specs {
			cmp, err := buildComparator(spec)
			if err != nil {
				return nil, fmt.Errorf("parse plan: model %s: %w", model, err)
			}
			cmps = append(cmps, cmp)
		}
		plan.byModel[model] = cmps
		plan.models = append(plan.models, model)
	}
	return plan, nil
}

// buildComparator constructs a comparator from its declared kind.
func buildComparator(spec comparatorSpec) (Comparator, error) {
	if len(spec.Fields) == 0 {
		return nil, fmt.Errorf("comparator %s declares no fields", spec.Kind)
	}
	switch spec.Kind {
	case KindDateUpdated:
		return NewDateUpdatedComparator(spec.Fields...), nil
	case KindEmailObfuscating:
		return NewEmailObfuscatingComparator(spec.Fields...), nil
	case KindHashObfuscating:
		return NewHashObfuscatingComparator(spec.Fields...), nil
	default:
		return nil, fmt.Errorf("unknown comparator kind %q", spec.Kind)
	}
}
