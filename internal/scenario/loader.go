package scenario

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tether-dev/tether-go/pkg/version"
)

// ParseScenario parses a scenario from YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	if sc.ID == "" {
		return nil, &LoadError{
			Message: "scenario ID is required",
		}
	}

	if len(sc.Steps) == 0 {
		return nil, &LoadError{
			Message: "scenario must have at least one step",
		}
	}

	if sc.Format != "" {
		got, err := version.Parse(sc.Format)
		if err != nil {
			return nil, &LoadError{
				Message: "invalid format version",
				Cause:   err,
			}
		}
		want, err := version.Parse(version.ScenarioFormat)
		if err != nil {
			return nil, &LoadError{
				Message: "invalid built-in format version",
				Cause:   err,
			}
		}
		if !got.Compatible(want) {
			return nil, &LoadError{
				Message: "unsupported format version " + sc.Format +
					" (this build reads " + version.ScenarioFormat + ")",
			}
		}
	}

	return &sc, nil
}

// LoadScenario loads a scenario from a file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	sc, err := ParseScenario(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{
			File:    path,
			Message: err.Error(),
		}
	}

	return sc, nil
}

// LoadDirectory loads all scenarios from a directory.
// Only files with .yaml or .yml extensions are loaded.
func LoadDirectory(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{
			File:    dir,
			Message: "failed to read directory",
			Cause:   err,
		}
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		sc, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		scenarios = append(scenarios, sc)
	}

	return scenarios, nil
}
