package scenario

import (
	"fmt"
	"time"

	"github.com/tether-dev/tether-go/pkg/cell"
	"github.com/tether-dev/tether-go/pkg/handle"
	"github.com/tether-dev/tether-go/pkg/lock"
	"github.com/tether-dev/tether-go/pkg/trace"
)

// Result represents the outcome of a single scenario run.
type Result struct {
	// Scenario is the scenario that was executed.
	Scenario *Scenario

	// Passed indicates if all steps passed.
	Passed bool

	// Error is the error that caused failure, if any.
	Error error

	// StepResults contains results for each executed step.
	StepResults []*StepResult

	// Duration is how long the run took.
	Duration time.Duration

	// StartTime when the run started.
	StartTime time.Time

	// EndTime when the run finished.
	EndTime time.Time

	// Skipped indicates if the scenario was skipped.
	Skipped bool

	// SkipReason explains why the scenario was skipped.
	SkipReason string
}

// StepResult represents the outcome of a single step.
type StepResult struct {
	// Step is the step that was executed.
	Step *Step

	// StepIndex is the index of this step (0-based).
	StepIndex int

	// Passed indicates if the step passed.
	Passed bool

	// Error is the error that caused failure, if any.
	Error error

	// ExpectResults maps expectation keys to their check results.
	ExpectResults map[string]*ExpectResult

	// Output contains the step's outputs.
	Output map[string]interface{}

	// Duration is how long the step took.
	Duration time.Duration
}

// ExpectResult represents the result of checking an expectation.
type ExpectResult struct {
	// Key is the expectation key (e.g. "outcome").
	Key string

	// Expected is the expected value.
	Expected interface{}

	// Actual is the actual value.
	Actual interface{}

	// Passed indicates if the expectation was met.
	Passed bool

	// Message describes the result.
	Message string
}

// SuiteResult represents the outcome of running a set of scenarios.
type SuiteResult struct {
	// Name is the suite label used in reports.
	Name string

	// Results contains results for each scenario.
	Results []*Result

	// PassCount is the number of passed scenarios.
	PassCount int

	// FailCount is the number of failed scenarios.
	FailCount int

	// SkipCount is the number of skipped scenarios.
	SkipCount int

	// Duration is the total time for all scenarios.
	Duration time.Duration
}

// Runner executes scenarios. Each run gets a fresh object registry, so
// scenarios never observe each other's state.
type Runner struct {
	tracer trace.Tracer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTracer attaches tr to every primitive the runner creates. Object
// names become trace labels.
func WithTracer(tr trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = tr }
}

// NewRunner creates a scenario runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a single scenario.
func (r *Runner) Run(sc *Scenario) *Result {
	result := &Result{
		Scenario:  sc,
		StartTime: time.Now(),
	}

	if sc.Skip {
		result.Skipped = true
		result.SkipReason = sc.SkipReason
		if result.SkipReason == "" {
			result.SkipReason = "skipped by scenario definition"
		}
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result
	}

	env := newEnv(r.tracer)

	result.Passed = true
	for i := range sc.Steps {
		step := &sc.Steps[i]
		stepResult := env.executeStep(step, i)
		result.StepResults = append(result.StepResults, stepResult)

		if !stepResult.Passed {
			result.Passed = false
			result.Error = stepResult.Error
			break
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	return result
}

// RunSuite executes all scenarios in order.
func (r *Runner) RunSuite(name string, scenarios []*Scenario) *SuiteResult {
	suite := &SuiteResult{Name: name}

	start := time.Now()
	defer func() { suite.Duration = time.Since(start) }()

	for _, sc := range scenarios {
		res := r.Run(sc)
		suite.Results = append(suite.Results, res)

		switch {
		case res.Skipped:
			suite.SkipCount++
		case res.Passed:
			suite.PassCount++
		default:
			suite.FailCount++
		}
	}

	return suite
}

// env holds the named objects of one scenario run.
type env struct {
	tracer trace.Tracer

	cells     map[string]*cell.Cell[any]
	mutexes   map[string]*lock.Mutex[any]
	rwmutexes map[string]*lock.RWMutex[any]
	strongs   map[string]*handle.Strong[any]
	weaks     map[string]*handle.Weak[any]
	views     map[string]*boundView
}

// boundView is a type-erased acquired view or bundle.
type boundView struct {
	get     func() *any
	set     func(any) // nil for shared views
	release func()
}

func newEnv(tracer trace.Tracer) *env {
	return &env{
		tracer:    tracer,
		cells:     make(map[string]*cell.Cell[any]),
		mutexes:   make(map[string]*lock.Mutex[any]),
		rwmutexes: make(map[string]*lock.RWMutex[any]),
		strongs:   make(map[string]*handle.Strong[any]),
		weaks:     make(map[string]*handle.Weak[any]),
		views:     make(map[string]*boundView),
	}
}

// executeStep runs a single step and checks its expectations.
func (e *env) executeStep(step *Step, index int) *StepResult {
	result := &StepResult{
		Step:          step,
		StepIndex:     index,
		ExpectResults: make(map[string]*ExpectResult),
		Output:        make(map[string]interface{}),
	}

	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	handler, ok := actions[step.Action]
	if !ok {
		result.Error = fmt.Errorf("unknown action: %s", step.Action)
		return result
	}

	outputs, err := handler(e, step)
	if err != nil {
		result.Error = err
		return result
	}

	for k, v := range outputs {
		result.Output[k] = v
	}

	result.Passed = true
	for key, expected := range step.Expect {
		er := checkExpect(key, expected, result.Output)
		result.ExpectResults[key] = er
		if !er.Passed {
			result.Passed = false
			result.Error = fmt.Errorf("expectation failed: %s - %s", key, er.Message)
		}
	}

	return result
}

// checkExpect compares one expected output against the step's actual
// outputs. The string "present" matches any existing value.
func checkExpect(key string, expected interface{}, output map[string]interface{}) *ExpectResult {
	actual, exists := output[key]
	if !exists {
		return &ExpectResult{
			Key:      key,
			Expected: expected,
			Passed:   false,
			Message:  fmt.Sprintf("key %q not found in outputs", key),
		}
	}

	if s, ok := expected.(string); ok && s == "present" {
		return &ExpectResult{
			Key:      key,
			Expected: expected,
			Actual:   actual,
			Passed:   true,
			Message:  fmt.Sprintf("%s = %v", key, actual),
		}
	}

	passed := fmt.Sprintf("%v", expected) == fmt.Sprintf("%v", actual)
	result := &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
	}

	if passed {
		result.Message = fmt.Sprintf("%s = %v", key, expected)
	} else {
		result.Message = fmt.Sprintf("expected %v, got %v", expected, actual)
	}

	return result
}

// nameInUse reports whether any object or view already has this name.
func (e *env) nameInUse(name string) bool {
	if _, ok := e.cells[name]; ok {
		return true
	}
	if _, ok := e.mutexes[name]; ok {
		return true
	}
	if _, ok := e.rwmutexes[name]; ok {
		return true
	}
	if _, ok := e.strongs[name]; ok {
		return true
	}
	if _, ok := e.weaks[name]; ok {
		return true
	}
	if _, ok := e.views[name]; ok {
		return true
	}
	return false
}

func (e *env) cellOpts(name string) []cell.Option {
	if e.tracer == nil {
		return nil
	}
	return []cell.Option{cell.WithTracer(e.tracer), cell.WithLabel(name)}
}

func (e *env) lockOpts(name string) []lock.Option {
	if e.tracer == nil {
		return nil
	}
	return []lock.Option{lock.WithTracer(e.tracer), lock.WithLabel(name)}
}

func (e *env) handleOpts(name string) []handle.Option {
	if e.tracer == nil {
		return nil
	}
	return []handle.Option{handle.WithTracer(e.tracer), handle.WithLabel(name)}
}
