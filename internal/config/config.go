// Package config loads idauction configuration written in CUE.
//
// A configuration file is unified with the embedded #Config schema, so
// bounds such as the round duration floor are rejected at load time with
// a file position.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/idauction/internal/engine"
	"github.com/roach88/idauction/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// DefaultSupervisor is the supervisor address of Default().
const DefaultSupervisor ir.Address = "supervisor"

// DefaultDatabase is the database path used when none is configured.
const DefaultDatabase = "idauction.db"

// Config is a validated configuration.
type Config struct {
	Supervisor ir.Address
	Reserved   []ir.Range
	Parameters *ir.Parameters // optional initial parameters
	Database   string
}

// Engine returns the engine settings carried by c.
func (c *Config) Engine() engine.Config {
	reserved := make([]ir.Range, len(c.Reserved))
	copy(reserved, c.Reserved)
	return engine.Config{Supervisor: c.Supervisor, Reserved: reserved}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	reserved := make([]ir.Range, len(engine.DefaultReserved))
	copy(reserved, engine.DefaultReserved)
	return &Config{
		Supervisor: DefaultSupervisor,
		Reserved:   reserved,
		Database:   DefaultDatabase,
	}
}

// Error is a configuration error with an optional CUE source position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// file mirrors #Config for decoding.
type file struct {
	Supervisor string       `json:"supervisor"`
	Reserved   *[]fileRange `json:"reserved,omitempty"`
	Parameters *struct {
		MinIncrementBp  int64 `json:"minIncrementBp"`
		ExtensionWindow int64 `json:"extensionWindow"`
		RoundDuration   int64 `json:"roundDuration"`
	} `json:"parameters,omitempty"`
	Database string `json:"database,omitempty"`
}

type fileRange struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// Parse validates CUE source against #Config. filename is used in error
// positions only.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, filename)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	var f file
	if err := unified.Decode(&f); err != nil {
		return nil, formatCUEError(err, filename)
	}

	cfg := Default()
	cfg.Supervisor = ir.Address(f.Supervisor)
	if f.Database != "" {
		cfg.Database = f.Database
	}
	if f.Reserved != nil {
		cfg.Reserved = make([]ir.Range, 0, len(*f.Reserved))
		for _, r := range *f.Reserved {
			cfg.Reserved = append(cfg.Reserved, ir.Range{From: ir.Identifier(r.From), To: ir.Identifier(r.To)})
		}
	}
	if f.Parameters != nil {
		cfg.Parameters = &ir.Parameters{
			MinIncrementBp:  f.Parameters.MinIncrementBp,
			ExtensionWindow: f.Parameters.ExtensionWindow,
			RoundDuration:   f.Parameters.RoundDuration,
		}
		// The schema and the engine must agree on the bounds.
		if err := engine.ValidateParameters(*cfg.Parameters); err != nil {
			return nil, &Error{Field: "parameters", Message: err.Error()}
		}
	}
	return cfg, nil
}

// formatCUEError extracts position info from CUE errors. A conflict with
// the schema carries positions in both files; the one in filename wins so
// the user is pointed at their own line.
func formatCUEError(err error, filename string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "cue"
	if path := first.Path(); len(path) > 0 {
		field = path[len(path)-1]
	}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		pos := positions[0]
		for _, p := range positions {
			if p.Filename() == filename {
				pos = p
				break
			}
		}
		return &Error{Field: field, Message: first.Error(), Pos: pos}
	}
	return &Error{Field: field, Message: first.Error()}
}
