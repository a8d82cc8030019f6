package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/idauction/internal/engine"
	"github.com/roach88/idauction/internal/ir"
	"github.com/roach88/idauction/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayReport holds the outcome of replaying a journal.
type ReplayReport struct {
	Receipts       int      `json:"receipts"`
	StoredSeq      int64    `json:"stored_seq"`
	StoredDigest   string   `json:"stored_digest"`
	ReplayedDigest string   `json:"replayed_digest"`
	Deterministic  bool     `json:"deterministic"`
	Mismatches     []string `json:"mismatches,omitempty"`
	InvariantError string   `json:"invariant_error,omitempty"`
}

// OK reports whether the journal reproduced the stored state and the
// stored state is consistent.
func (r ReplayReport) OK() bool {
	return r.Deterministic && r.InvariantError == ""
}

func (r ReplayReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "receipts:        %d (last seq %d)\n", r.Receipts, r.StoredSeq)
	fmt.Fprintf(&b, "stored digest:   %s\n", r.StoredDigest)
	fmt.Fprintf(&b, "replayed digest: %s\n", r.ReplayedDigest)
	for _, m := range r.Mismatches {
		fmt.Fprintf(&b, "  mismatch: %s\n", m)
	}
	if r.InvariantError != "" {
		fmt.Fprintf(&b, "  invariant: %s\n", r.InvariantError)
	}
	if r.OK() {
		b.WriteString("✓ journal reproduces stored state")
	} else {
		b.WriteString("✗ journal does not reproduce stored state")
	}
	return b.String()
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify determinism",
		Long: `Re-execute every journaled call on a fresh in-memory engine and compare
the result with the stored state.

Each receipt must reproduce with the same id and seq, and the replayed
state digest must equal the digest of the stored state. The stored state
is also checked for value conservation.

Exit codes:
  0 - Journal reproduces the stored state
  1 - Divergence or invariant violation detected
  2 - Command error (database not openable, bad config, etc.)

Examples:
  idauction replay --db ./auction.db
  idauction replay --db ./auction.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		_ = f.ErrorFrom(err)
		return err
	}

	st, err := store.Open(databasePath(opts.Database, cfg))
	if err != nil {
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	stored, seq, err := st.Load(ctx)
	if err != nil {
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load state", err)
	}
	receipts, err := st.ListReceipts(ctx, 0, 0)
	if err != nil {
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list receipts", err)
	}

	report, err := verifyJournal(ctx, cfg.Engine(), stored, seq, receipts)
	if err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "replay failed", err)
	}
	f.VerboseLog("replayed %d receipt(s)", report.Receipts)

	if !report.OK() {
		msg := "journal does not reproduce stored state"
		if err := f.Failure(report, ErrCodeReplay, msg); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return f.Success(report)
}

// verifyJournal replays receipts and compares the outcome with the stored
// state.
func verifyJournal(ctx context.Context, cfg engine.Config, stored *ir.State, seq int64, receipts []ir.Receipt) (ReplayReport, error) {
	report := ReplayReport{Receipts: len(receipts), StoredSeq: seq}

	digest, err := ir.StateDigest(stored)
	if err != nil {
		return report, fmt.Errorf("digest stored state: %w", err)
	}
	report.StoredDigest = digest

	replayed, err := engine.Replay(ctx, cfg, receipts)
	if err != nil {
		return report, err
	}
	report.ReplayedDigest = replayed.Digest
	for _, m := range replayed.Mismatches {
		report.Mismatches = append(report.Mismatches, m.String())
	}
	report.Deterministic = replayed.OK() && replayed.Digest == report.StoredDigest

	if err := engine.CheckInvariants(stored); err != nil {
		report.InvariantError = err.Error()
	}
	return report, nil
}
