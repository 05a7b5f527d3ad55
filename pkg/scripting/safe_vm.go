// guardian/pkg/scripting/safe_vm.go

package scripting

import (
	"fmt"
	"sync"
	"time"

	"github.com/robertkrimen/otto"

	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/compiler"
	"github.com/abdelrazekrizk/kiro-code-quality-guardian/pkg/logging"
)

// SafeVM evaluates user-supplied predicate scripts in a restricted JS
// environment. Scripts see two parameters, content and language, and their
// result is coerced to a boolean.
type SafeVM struct {
	vm      *otto.Otto
	mu      sync.Mutex
	scripts map[string]string
}

func NewSafeVM() *SafeVM {
	vm := otto.New()

	// Remove potentially dangerous functions
	vm.Set("eval", otto.UndefinedValue())
	vm.Set("Function", otto.UndefinedValue())

	return &SafeVM{
		vm:      vm,
		scripts: make(map[string]string),
	}
}

// SetScript registers a predicate body under a name. The body is the inside
// of `function(content, language) { ... }` and must return a value.
func (s *SafeVM) SetScript(name, body string) error {
	if body == "" {
		return fmt.Errorf("empty script body for %q", name)
	}
	s.mu.Lock()
	s.scripts[name] = body
	s.mu.Unlock()
	logging.Logger.Debug().Str("script", name).Msg("Registered predicate script")
	return nil
}

// Predicate returns a compiler.Predicate backed by the named script. Script
// failures and timeouts evaluate to false so a broken script can only make
// its rule silent, never wedge an analysis.
func (s *SafeVM) Predicate(name string, timeout time.Duration) (compiler.Predicate, error) {
	s.mu.Lock()
	body, ok := s.scripts[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("script not found: %s", name)
	}

	return func(content, language string) bool {
		result, err := s.run(name, body, content, language, timeout)
		if err != nil {
			logging.Logger.Error().Err(err).Str("script", name).Msg("Predicate script failed")
			return false
		}
		return result
	}, nil
}

func (s *SafeVM) run(name, body, content, language string, timeout time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	funcDef := fmt.Sprintf("(function(content, language) { %s })", body)

	done := make(chan bool, 1)
	errChan := make(chan error, 1)

	s.vm.Interrupt = make(chan func(), 1)
	defer func() { s.vm.Interrupt = nil }()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("script panicked: %v", r)
			}
		}()

		s.vm.SetStackDepthLimit(1000)

		value, err := s.vm.Eval(funcDef)
		if err != nil {
			errChan <- fmt.Errorf("error evaluating function: %w", err)
			return
		}

		result, err := value.Call(otto.NullValue(), content, language)
		if err != nil {
			errChan <- err
			return
		}

		boolean, err := result.ToBoolean()
		if err != nil {
			errChan <- fmt.Errorf("error coercing result: %w", err)
			return
		}
		done <- boolean
	}()

	select {
	case result := <-done:
		return result, nil
	case err := <-errChan:
		return false, err
	case <-time.After(timeout):
		s.vm.Interrupt <- func() { panic("Execution timeout") }
		return false, fmt.Errorf("script %q timed out", name)
	}
}
