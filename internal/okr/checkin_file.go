package okr

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ValueUpdate is one requested key result value change.
type ValueUpdate struct {
	KeyResultID string
	Value       float64
}

type valuesFile struct {
	Values []rawValue `yaml:"values"`
}

type rawValue struct {
	KeyResult string   `yaml:"key_result"`
	Value     *float64 `yaml:"value"`
}

// ParseValuesFile reads check-in key result values from YAML. The file
// may contain a `values:` list or a top-level list.
func ParseValuesFile(data []byte) ([]ValueUpdate, error) {
	var file valuesFile
	if err := yaml.Unmarshal(data, &file); err == nil && file.Values != nil {
		return updatesFrom(file.Values)
	}

	var list []rawValue
	if err := yaml.Unmarshal(data, &list); err == nil && list != nil {
		return updatesFrom(list)
	}

	return nil, fmt.Errorf("values file must contain a `values:` list or a top-level list")
}

func updatesFrom(raws []rawValue) ([]ValueUpdate, error) {
	updates := make([]ValueUpdate, 0, len(raws))
	for i, raw := range raws {
		if raw.KeyResult == "" {
			return nil, fmt.Errorf("values[%d]: key_result is required", i)
		}
		if raw.Value == nil {
			return nil, fmt.Errorf("values[%d]: value is required", i)
		}
		updates = append(updates, ValueUpdate{KeyResultID: raw.KeyResult, Value: *raw.Value})
	}
	return updates, nil
}
