package httpmock

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
)

// A Driver opens a page, or any other client of type P, through which a
// scenario's steps are executed. The driver must install the given Router
// so that the page's requests are dispatched to it.
type Driver[P any] interface {
	Open(ctx context.Context, r *Router) (page P, close func() error, err error)
}

// DriverFunc is a func that implements the Driver interface.
type DriverFunc[P any] func(ctx context.Context, r *Router) (P, func() error, error)

func (f DriverFunc[P]) Open(ctx context.Context, r *Router) (P, func() error, error) {
	return f(ctx, r)
}

// Scenario describes a single end-to-end scenario.
type Scenario[P any] struct {
	// The name of the scenario, used as the name of the subtest.
	Name string
	// Script registers the scenario's routes on the given Router and returns
	// the steps to be executed. Script is invoked each time the scenario is
	// run with a new Router; any state shared between the routes and the steps
	// should be declared inside Script to keep scenarios isolated.
	Script func(r *Router) []Step[P]
	// State is passed to the Suite's StateHandler.
	State State
	// Options for the scenario's Router.
	Options []Option
	// Indicates that the Scenario should be skipped by the runner.
	Skip bool
}

// Step is a single user interaction, or assertion, of a scenario.
type Step[P any] struct {
	Name string
	Do   func(ctx context.Context, page P) error
}

// Suite runs scenarios with a Driver.
type Suite[P any] struct {
	// The driver used to open the page for each scenario.
	Driver Driver[P]
	// SetupAndTeardown is a two-func chain that can be used to setup and
	// teardown the environment needed by a scenario.
	//
	// The setup function is the first one in the chain and it is invoked
	// before the scenario's page is opened, the teardown, returned by the
	// setup, is the second one in the chain and it is invoked after the
	// scenario's page is closed.
	SetupAndTeardown func(name string) (teardown func() error, err error)
	// If set, the StateHandler will be used to manage the scenarios' State.
	StateHandler StateHandler
	// The logger used by the scenarios' Routers, if nil a default one is used.
	Logger *log.Logger

	mu sync.RWMutex
	// The number of passed scenarios.
	passed int
	// The number of failed scenarios.
	failed int
	// The number of skipped scenarios.
	skipped int
}

// Run runs each of the given scenarios as a subtest of t.
func (s *Suite[P]) Run(t *testing.T, scenarios []*Scenario[P]) {
	s.run(testing_t{t}, scenarios)
}

func (s *Suite[P]) run(t testing_T, scenarios []*Scenario[P]) {
	var passed, failed, skipped int
	for i, sc := range scenarios {
		if sc.Skip {
			skipped += 1
			continue
		}

		name := sc.Name
		if len(name) == 0 {
			name = fmt.Sprintf("%02d", i)
		}

		t.Run(name, func(t testing_T) {
			ss := &sstate[P]{name: name, sc: sc}
			if err := runscenario(s, ss); err != nil {
				t.Error(err)
				failed += 1
			} else {
				passed += 1
			}
		})
	}

	s.mu.Lock()
	s.passed += passed
	s.failed += failed
	s.skipped += skipped
	s.mu.Unlock()
}

// LogReport logs a summary of the run scenarios to stderr. It is intended to be called at "teardown".
func (s *Suite[P]) LogReport() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var report = struct {
		Passed, Failed, Skipped string
	}{}

	if s.passed > 0 {
		report.Passed = strconv.Itoa(s.passed)
	}
	if s.failed > 0 {
		report.Failed = strconv.Itoa(s.failed)
	}
	if s.skipped > 0 {
		report.Skipped = strconv.Itoa(s.skipped)
	}

	if err := output_templates.ExecuteTemplate(os.Stderr, "scenario_report", report); err != nil {
		panic(err)
	}
}

// The sstate type holds the state of a running scenario.
type sstate[P any] struct {
	name string
	sc   *Scenario[P]
	r    *Router
}

func runscenario[P any](s *Suite[P], ss *sstate[P]) (e error) {
	if s.SetupAndTeardown != nil {
		teardown, err := s.SetupAndTeardown(ss.name)
		if err != nil {
			return &testError{code: errScenarioSetup, scenario: ss.name, err: err}
		}
		if teardown != nil {
			defer func() {
				if err := teardown(); err != nil && e == nil {
					e = &testError{code: errScenarioTeardown, scenario: ss.name, err: err}
				}
			}()
		}
	}

	if s.StateHandler != nil {
		if err := s.StateHandler.Init(ss.sc.State); err != nil {
			return &testError{code: errStateInit, scenario: ss.name, err: err}
		}
		defer func() {
			if err := s.StateHandler.Cleanup(ss.sc.State); err != nil && e == nil {
				e = &testError{code: errStateCleanup, scenario: ss.name, err: err}
			}
		}()
	}

	opts := ss.sc.Options
	if s.Logger != nil {
		opts = append([]Option{WithLogger(s.Logger.With("scenario", ss.name))}, opts...)
	}
	ss.r = NewRouter(opts...)

	// routes are registered before the page is opened
	var steps []Step[P]
	if ss.sc.Script != nil {
		steps = ss.sc.Script(ss.r)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	page, closePage, err := s.Driver.Open(ctx, ss.r)
	if err != nil {
		return &testError{code: errScenarioOpen, scenario: ss.name, err: err}
	}
	if closePage != nil {
		defer func() {
			if err := closePage(); err != nil && e == nil {
				e = &testError{code: errScenarioTeardown, scenario: ss.name, err: err}
			}
		}()
	}

	for i, step := range steps {
		name := step.Name
		if len(name) == 0 {
			name = fmt.Sprintf("#%d", i)
		}
		stepErr := step.Do(ctx, page)
		if err := ss.r.Err(); err != nil {
			// a failed route is usually the cause of the failed step
			if stepErr != nil {
				err = append(err.(errorList), &testError{code: errScenarioStep, scenario: ss.name, step: name, err: stepErr})
			}
			return &testError{code: errScenarioRoute, scenario: ss.name, step: name, err: err}
		}
		if stepErr != nil {
			return &testError{code: errScenarioStep, scenario: ss.name, step: name, err: stepErr}
		}
	}

	if s.StateHandler != nil {
		if err := s.StateHandler.Check(ss.sc.State); err != nil {
			return &testError{code: errStateCheck, scenario: ss.name, err: err}
		}
	}
	return nil
}

// The testing_T interface represents a tiny portion of the *testing.T functionality which
// is being used by the Suite.run method. It's raison d'etre is to make Suite.run testable.
type testing_T interface {
	Error(args ...interface{})
	Run(name string, f func(testing_T)) bool
}

// testing_t is a wrapper around *testing.T that satisfies the testing_T interface.
type testing_t struct {
	t *testing.T
}

func (tt testing_t) Error(args ...interface{}) {
	tt.t.Error(args...)
}

func (tt testing_t) Run(name string, f func(testing_T)) bool {
	return tt.t.Run(name, func(t *testing.T) { f(testing_t{t}) })
}
