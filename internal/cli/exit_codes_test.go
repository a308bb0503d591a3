package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ariel-frischer/fragnote/internal/app"
	"github.com/ariel-frischer/fragnote/internal/changelog"
	"github.com/ariel-frischer/fragnote/internal/config"
	apperrors "github.com/ariel-frischer/fragnote/internal/errors"
	"github.com/ariel-frischer/fragnote/internal/fragment"
)

func TestExitCode(t *testing.T) {
	markerErr := &changelog.MarkerNotFoundError{Path: "CHANGELOG.md", Marker: "<!-- marker -->"}

	tests := map[string]struct {
		err  error
		want int
	}{
		"argument error": {
			err:  apperrors.NewArgumentError("unexpected positional argument"),
			want: ExitInvalidArguments,
		},
		"configuration error": {
			err:  apperrors.NewConfigError("changelog_output_type must be markdown or rest"),
			want: ExitValidationFailed,
		},
		"validation error": {
			err:  apperrors.NewValidationError("description must not be blank"),
			want: ExitValidationFailed,
		},
		"precondition error": {
			err:  apperrors.NewPreconditionError("no editor configured"),
			want: ExitPreconditionFailed,
		},
		"runtime error": {
			err:  apperrors.NewRuntimeError("disk full"),
			want: ExitRuntimeFailure,
		},
		"marker not found": {
			err:  markerErr,
			want: ExitPreconditionFailed,
		},
		"wrapped marker not found": {
			err:  fmt.Errorf("merging section: %w", markerErr),
			want: ExitPreconditionFailed,
		},
		"config validation": {
			err:  &config.ValidationError{FilePath: "fragnote.yaml", Message: "change_fragments_path is required"},
			want: ExitValidationFailed,
		},
		"compile batch failure": {
			err:  &app.CompileError{},
			want: ExitValidationFailed,
		},
		"invalid fragment": {
			err:  &fragment.InvalidFragmentError{Field: "type", Message: "missing"},
			want: ExitValidationFailed,
		},
		"unknown command": {
			err:  errors.New(`unknown command "compiel" for "fragnote"`),
			want: ExitInvalidArguments,
		},
		"plain error": {
			err:  errors.New("read: connection reset"),
			want: ExitRuntimeFailure,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
