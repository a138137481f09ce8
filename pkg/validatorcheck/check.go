// Package validatorcheck invokes the external precice-config-check tool
// against a generated precice-config.xml and maps its exit code to a
// Result, per spec.md §6/§7. The validator is advisory: a non-zero result
// is surfaced to the caller but never removes the file it checked.
package validatorcheck

import (
	"os/exec"

	"github.com/jihwankim/precice-case-generate/pkg/diagnostics"
)

// Result is the outcome of one validator invocation.
type Result struct {
	ExitCode int
	Output   string
}

// Passed reports whether the checker considered the config valid.
func (r Result) Passed() bool { return r.ExitCode == 0 }

// Checker runs the external precice-config-check binary.
type Checker struct {
	BinaryPath string
}

// NewChecker creates a Checker that invokes the given binary.
func NewChecker(binaryPath string) *Checker {
	return &Checker{BinaryPath: binaryPath}
}

// Check runs `<BinaryPath> <configPath>` and classifies the result: exit 0
// is success, 1 a syntactic error, 2 a logical error. Any other exit code is
// reported through the same Result shape with the raw exit code preserved.
// A failure to start the process at all is returned as a ValidatorFailure
// error instead, with an empty Result.
func (c *Checker) Check(configPath string) (Result, error) {
	cmd := exec.Command(c.BinaryPath, configPath)
	output, err := cmd.CombinedOutput()

	if err == nil {
		return Result{ExitCode: 0, Output: string(output)}, nil
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		return Result{ExitCode: exitErr.ExitCode(), Output: string(output)}, nil
	}

	return Result{}, diagnostics.NewValidatorFailure(err, "failed to invoke %s", c.BinaryPath)
}

// Report renders a Result as a human-readable ValidatorFailure error, or
// nil when the check passed.
func Report(binaryPath string, r Result) error {
	if r.Passed() {
		return nil
	}
	kind := "logical error"
	if r.ExitCode == 1 {
		kind = "syntactic error"
	}
	return diagnostics.NewValidatorFailure(nil, "%s reported a %s (exit %d):\n%s", binaryPath, kind, r.ExitCode, r.Output)
}
