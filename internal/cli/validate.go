package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/idauction/internal/config"
	"github.com/roach88/idauction/internal/ir"
)

// ValidationIssue is one configuration problem with its source position.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ConfigView is the validated configuration as reported by validate.
type ConfigView struct {
	Supervisor ir.Address     `json:"supervisor"`
	Reserved   []ir.Range     `json:"reserved"`
	Parameters *ir.Parameters `json:"parameters,omitempty"`
	Database   string         `json:"database"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Path   string            `json:"path"`
	Valid  bool              `json:"valid"`
	Config *ConfigView       `json:"config,omitempty"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

func (r ValidationResult) String() string {
	var b strings.Builder
	if !r.Valid {
		fmt.Fprintf(&b, "✗ %s is invalid", r.Path)
		for _, e := range r.Errors {
			if e.Line > 0 {
				fmt.Fprintf(&b, "\n  line %d:%d: %s: %s", e.Line, e.Column, e.Field, e.Message)
			} else {
				fmt.Fprintf(&b, "\n  %s: %s", e.Field, e.Message)
			}
		}
		return b.String()
	}

	c := r.Config
	fmt.Fprintf(&b, "✓ %s is valid\n", r.Path)
	fmt.Fprintf(&b, "  supervisor: %s\n", c.Supervisor)
	ranges := make([]string, len(c.Reserved))
	for i, rg := range c.Reserved {
		ranges[i] = fmt.Sprintf("%d-%d", rg.From, rg.To)
	}
	fmt.Fprintf(&b, "  reserved:   %s\n", strings.Join(ranges, ", "))
	if c.Parameters != nil {
		fmt.Fprintf(&b, "  parameters: min_increment_bp=%d extension_window=%ds round_duration=%ds\n",
			c.Parameters.MinIncrementBp, c.Parameters.ExtensionWindow, c.Parameters.RoundDuration)
	}
	fmt.Fprintf(&b, "  database:   %s", c.Database)
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config.cue]",
		Short: "Validate a configuration file",
		Long: `Validate a CUE configuration file against the configuration schema.

Checks the supervisor address, reserved ranges, database path and the
optional initial parameters, including the round duration and extension
window bounds. Without an argument the file named by --config is checked.

Exit codes:
  0 - Configuration is valid
  1 - Configuration is invalid
  2 - Command error (no file given, file not readable)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	if path == "" {
		msg := "no configuration file given (pass a path or --config)"
		_ = f.Error(ErrCodeConfig, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	f.VerboseLog("Validating %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		var cfgErr *config.Error
		if !errors.As(err, &cfgErr) {
			_ = f.Error(ErrCodeConfig, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read config", err)
		}

		result := ValidationResult{Path: path, Errors: []ValidationIssue{issueFrom(cfgErr)}}
		msg := fmt.Sprintf("%s is invalid", path)
		if err := f.Failure(result, ErrCodeConfig, msg); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	return f.Success(ValidationResult{
		Path:  path,
		Valid: true,
		Config: &ConfigView{
			Supervisor: cfg.Supervisor,
			Reserved:   cfg.Reserved,
			Parameters: cfg.Parameters,
			Database:   cfg.Database,
		},
	})
}

func issueFrom(e *config.Error) ValidationIssue {
	issue := ValidationIssue{Field: e.Field, Message: e.Message}
	if e.Pos.IsValid() {
		issue.Line = e.Pos.Line()
		issue.Column = e.Pos.Column()
	}
	return issue
}
