package cli

import (
	"context"
	"log/slog"

	"github.com/roach88/idauction/internal/config"
	"github.com/roach88/idauction/internal/engine"
	"github.com/roach88/idauction/internal/store"
)

// session is an engine opened on a database for the duration of one
// command.
type session struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
	dbPath string
}

// openSession loads the config, opens the database (creating it if
// needed) and loads the engine state from it.
func openSession(ctx context.Context, opts *RootOptions, dbFlag string, engineOpts ...engine.Option) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	path := databasePath(dbFlag, cfg)
	slog.Debug("opening database", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	eng, err := engine.New(ctx, st, cfg.Engine(), engineOpts...)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load engine state", err)
	}

	return &session{cfg: cfg, store: st, engine: eng, dbPath: path}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "path", s.dbPath, "error", err)
	}
}
