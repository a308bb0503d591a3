package cli

import (
	"errors"
	"strings"

	"github.com/ariel-frischer/fragnote/internal/app"
	"github.com/ariel-frischer/fragnote/internal/changelog"
	"github.com/ariel-frischer/fragnote/internal/config"
	apperrors "github.com/ariel-frischer/fragnote/internal/errors"
	"github.com/ariel-frischer/fragnote/internal/fragment"
)

// Exit codes for the fragnote CLI
// These codes support scripting and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitValidationFailed indicates fragment or configuration validation failed
	ExitValidationFailed = 1

	// ExitPreconditionFailed indicates required project state is absent,
	// such as the changelog marker or a guessable version
	ExitPreconditionFailed = 2

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitRuntimeFailure indicates an unexpected execution failure
	ExitRuntimeFailure = 4
)

// ExitCode maps an error returned by Execute to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	switch categoryOf(err) {
	case apperrors.Argument:
		return ExitInvalidArguments
	case apperrors.Configuration, apperrors.Validation:
		return ExitValidationFailed
	case apperrors.Precondition:
		return ExitPreconditionFailed
	default:
		return ExitRuntimeFailure
	}
}

// categoryOf classifies errors that reach the top level. Structured
// errors carry their own category; bare domain errors are recognized
// by type.
func categoryOf(err error) apperrors.ErrorCategory {
	if cliErr := apperrors.AsCLIError(err); cliErr != nil {
		return cliErr.Category
	}

	var markerErr *changelog.MarkerNotFoundError
	var configErr *config.ValidationError
	var compileErr *app.CompileError
	switch {
	case errors.As(err, &markerErr):
		return apperrors.Precondition
	case errors.As(err, &configErr), errors.As(err, &compileErr), fragment.IsInvalid(err):
		return apperrors.Validation
	case strings.HasPrefix(err.Error(), "unknown command"):
		return apperrors.Argument
	default:
		return apperrors.Runtime
	}
}
