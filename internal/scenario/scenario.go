// Package scenario provides YAML-driven contract scenarios for the
// guard and bundle semantics. Scenarios run on a single goroutine, so
// the outcome of every try operation is deterministic.
package scenario

// Scenario represents a single scenario loaded from YAML.
type Scenario struct {
	// ID is the unique scenario identifier (e.g. "SC-CELL-001").
	ID string `yaml:"id"`

	// Name is a human-readable name for the scenario.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Format is the scenario file format version. Empty means current.
	Format string `yaml:"format,omitempty"`

	// Steps are the actions to execute in order.
	Steps []Step `yaml:"steps"`

	// Skip marks the scenario as skipped.
	Skip bool `yaml:"skip,omitempty"`

	// SkipReason explains why the scenario is skipped.
	SkipReason string `yaml:"skip_reason,omitempty"`

	// Tags for categorizing scenarios.
	Tags []string `yaml:"tags,omitempty"`
}

// Step represents a single action in a scenario.
type Step struct {
	// Action is the action to perform (e.g. "make_cell", "try_borrow").
	Action string `yaml:"action"`

	// Params are parameters for the action.
	Params map[string]interface{} `yaml:"params,omitempty"`

	// Expect defines expected outputs after the action.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Description explains what this step does.
	Description string `yaml:"description,omitempty"`
}

// LoadError provides details about a scenario loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	if e.File == "" {
		return e.Message
	}
	return e.File + ": " + e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
