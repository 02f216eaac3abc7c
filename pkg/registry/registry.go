// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"subsidy-recommender/internal/common/validation"
)

//go:embed activities.json
var embeddedActivities []byte

var (
	defaultOnce sync.Once
	defaultReg  *ActivityRegistry
	defaultErr  error
)

// Default returns the registry compiled into the binary.
func Default() (*ActivityRegistry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Parse(embeddedActivities)
	})
	return defaultReg, defaultErr
}

// LoadRegistry reads a registry file from disk.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return &reg, nil
}

// Find looks an activity up by task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// InputValidator compiles the activity's input schema.
func (a *Activity) InputValidator() (*validation.Schema, error) {
	raw, err := json.Marshal(a.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("activity %s: encode input schema: %w", a.ID, err)
	}
	return validation.Compile(raw)
}

// TimeoutDuration parses Timeout ("300s", "5m").
func (a *Activity) TimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(a.Timeout)
}

// Validate reports every structural problem in the registry at once.
func (r *ActivityRegistry) Validate() error {
	var problems []string
	seenID := map[string]bool{}
	seenTask := map[string]bool{}

	for i, a := range r.Activities {
		label := a.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		if a.ID == "" {
			problems = append(problems, fmt.Sprintf("activity %s: missing id", label))
		} else if seenID[a.ID] {
			problems = append(problems, fmt.Sprintf("activity %s: duplicate id", label))
		}
		seenID[a.ID] = true

		if a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("activity %s: missing taskType", label))
		} else if seenTask[a.TaskType] {
			problems = append(problems, fmt.Sprintf("activity %s: duplicate taskType %s", label, a.TaskType))
		}
		seenTask[a.TaskType] = true

		switch a.ImplementationStatus {
		case StatusPlanned, StatusInProgress, StatusCompleted, StatusVerified:
		default:
			problems = append(problems, fmt.Sprintf("activity %s: unknown implementationStatus %q", label, a.ImplementationStatus))
		}

		if a.Timeout != "" {
			if _, err := a.TimeoutDuration(); err != nil {
				problems = append(problems, fmt.Sprintf("activity %s: bad timeout: %v", label, err))
			}
		}

		if len(a.InputSchema) > 0 {
			if _, err := a.InputValidator(); err != nil {
				problems = append(problems, fmt.Sprintf("activity %s: %v", label, err))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("registry invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Update sets one field of the activity with the given id and stamps
// LastUpdated.
func (r *ActivityRegistry) Update(id, field, value string) error {
	var a *Activity
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			a = &r.Activities[i]
			break
		}
	}
	if a == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// Save writes the registry as indented JSON, creating parent directories.
func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
