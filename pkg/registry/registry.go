// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
)

//go:embed activities.json
var defaultRegistry []byte

var activityIDPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)

// LoadRegistry reads a registry file from disk.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Default returns the registry compiled into the binary.
func Default() *ActivityRegistry {
	reg, err := Parse(defaultRegistry)
	if err != nil {
		panic(fmt.Sprintf("embedded activity registry is invalid: %v", err))
	}
	return reg
}

// LoadOrDefault reads path when it exists and falls back to the embedded registry.
func LoadOrDefault(path string) (*ActivityRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadRegistry(path)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return &reg, nil
}

// Find returns the activity bound to taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TaskTypes lists the registered task types in sorted order.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.TaskType)
	}
	sort.Strings(out)
	return out
}

// Check reports structural problems: bad ids, missing or duplicated task types.
func (r *ActivityRegistry) Check() []string {
	var problems []string
	seenIDs := make(map[string]bool)
	seenTypes := make(map[string]bool)

	for _, a := range r.Activities {
		if !activityIDPattern.MatchString(a.ID) {
			problems = append(problems, fmt.Sprintf("%s: id must follow domain.subdomain.action", a.ID))
		}
		if seenIDs[a.ID] {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", a.ID))
		}
		seenIDs[a.ID] = true

		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("%s: taskType is required", a.ID))
		} else if seenTypes[a.TaskType] {
			problems = append(problems, fmt.Sprintf("%s: duplicate taskType %s", a.ID, a.TaskType))
		}
		seenTypes[a.TaskType] = true

		if a.InputSchema == nil {
			problems = append(problems, fmt.Sprintf("%s: inputSchema is required", a.ID))
		}
		if a.Retries < 0 {
			problems = append(problems, fmt.Sprintf("%s: retries must not be negative", a.ID))
		}
	}
	return problems
}
