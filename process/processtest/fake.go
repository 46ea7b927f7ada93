// Package processtest provides a scripted process.Runner for tests.
package processtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/imranansari/dev-scripts/process"
)

// Response is the scripted outcome of one command line
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Fake answers commands from a table keyed by the full command line
// ("forge install list --json"). Unknown commands fail with exit code 127.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []string
}

// New creates a Fake with the given responses
func New(responses map[string]Response) *Fake {
	if responses == nil {
		responses = map[string]Response{}
	}
	return &Fake{responses: responses}
}

// Set adds or replaces the response for a command line
func (f *Fake) Set(commandLine string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[commandLine] = resp
}

// Calls returns the command lines run so far, in order
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Called reports whether commandLine was run
func (f *Fake) Called(commandLine string) bool {
	for _, call := range f.Calls() {
		if call == commandLine {
			return true
		}
	}
	return false
}

func (f *Fake) Run(_ context.Context, name string, args ...string) (process.Result, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))

	f.mu.Lock()
	f.calls = append(f.calls, line)
	resp, ok := f.responses[line]
	f.mu.Unlock()

	if !ok {
		resp = Response{ExitCode: 127, Stderr: fmt.Sprintf("unexpected command: %s", line)}
	}

	result := process.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.Err != nil {
		return result, resp.Err
	}
	if resp.ExitCode != 0 {
		return result, &process.ExitError{Command: line, ExitCode: resp.ExitCode, Stderr: resp.Stderr}
	}
	return result, nil
}
