package scriptpatch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Validator checks that a patched script is still syntactically valid Python.
// When an interpreter is available the script is byte-compiled; otherwise a
// structural check on the scene class and bracket balance is used.
type Validator struct {
	python string
	run    runnerFunc
}

// ValidatorOption customizes a validator.
type ValidatorOption func(*Validator)

// WithPython sets the interpreter binary. An empty value forces the
// structural fallback.
func WithPython(binary string) ValidatorOption {
	return func(v *Validator) {
		v.python = binary
	}
}

// WithRunner replaces subprocess execution (used in tests).
func WithRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) ValidatorOption {
	return func(v *Validator) {
		if run != nil {
			v.run = run
		}
	}
}

// NewValidator constructs a validator, locating python3 on PATH by default.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{run: runCommand}
	if path, err := exec.LookPath("python3"); err == nil {
		v.python = path
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Validate reports whether the script is syntactically sound. On failure the
// second return value carries the diagnostic.
func (v *Validator) Validate(ctx context.Context, script string) (bool, string) {
	if v.python == "" {
		return structuralCheck(script)
	}

	// The script gets its own directory so removing it also removes the
	// __pycache__ the interpreter writes next to it.
	dir, err := os.MkdirTemp("", "scene-")
	if err != nil {
		return structuralCheck(script)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "scene.py")
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return structuralCheck(script)
	}

	output, err := v.run(ctx, v.python, "-m", "py_compile", path)
	if err != nil {
		return false, strings.TrimSpace(string(output))
	}
	return true, ""
}

// structuralCheck is a coarse syntax sanity check for environments without a
// Python interpreter: the script must declare a scene class with a construct
// method and keep its brackets balanced.
func structuralCheck(script string) (bool, string) {
	if !classPattern.MatchString(script) {
		return false, "no scene class found"
	}
	if !constructPattern.MatchString(script) {
		return false, "no construct method found"
	}
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	inString := false
	var quote rune
	for _, r := range script {
		if inString {
			if r == quote {
				inString = false
			}
			continue
		}
		switch r {
		case '\'', '"':
			inString = true
			quote = r
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return false, fmt.Sprintf("unbalanced %q", r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return false, fmt.Sprintf("unclosed %q", stack[len(stack)-1])
	}
	return true, ""
}
