package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/idauction/internal/ir"
	"github.com/roach88/idauction/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	After    int64
	Limit    int
	TxID     string     // optional - single receipt by correlation token
	Caller   ir.Address // optional - receipts of one caller
}

// TraceResult holds the journal slice shown by the trace command.
type TraceResult struct {
	Receipts []ir.Receipt `json:"receipts"`
	Stats    TraceStats   `json:"stats"`

	verbose bool
}

// TraceStats holds summary statistics for the listed receipts.
type TraceStats struct {
	Receipts int            `json:"receipts"`
	Events   int            `json:"events"`
	ByOp     map[ir.Op]int  `json:"by_op"`
	Rounds   map[uint64]int `json:"rounds_closed"`
}

func (r TraceResult) String() string {
	if len(r.Receipts) == 0 {
		return "No receipts found."
	}

	var b strings.Builder
	for i, rc := range r.Receipts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "#%d %s", rc.Seq, rc.Call)
		if r.verbose {
			fmt.Fprintf(&b, "\n    id=%s tx=%s", rc.ID, rc.TxID)
		}
		for _, ev := range rc.Events {
			fmt.Fprintf(&b, "\n    %s", formatEvent(ev))
		}
	}
	fmt.Fprintf(&b, "\n\n%d receipt(s), %d event(s)", r.Stats.Receipts, r.Stats.Events)
	return b.String()
}

func formatEvent(ev ir.Event) string {
	switch ev.Kind {
	case ir.EventBidPlaced:
		return fmt.Sprintf("%s round=%d %s offers %s on %d", ev.Kind, ev.Round, ev.Address, ev.Amount, ev.Identifier)
	case ir.EventRoundClosed:
		if ev.Address.IsNone() {
			return fmt.Sprintf("%s round=%d no bids at=%d", ev.Kind, ev.Round, ev.At)
		}
		return fmt.Sprintf("%s round=%d %d to %s for %s at=%d", ev.Kind, ev.Round, ev.Identifier, ev.Address, ev.Amount, ev.At)
	case ir.EventRoundOpened, ir.EventEndExtended:
		return fmt.Sprintf("%s round=%d ends=%d", ev.Kind, ev.Round, ev.At)
	case ir.EventDepositCredited, ir.EventWithdrawn:
		return fmt.Sprintf("%s round=%d %s %s", ev.Kind, ev.Round, ev.Address, ev.Amount)
	case ir.EventWhitelistSet:
		return fmt.Sprintf("%s round=%d %d allowed=%t", ev.Kind, ev.Round, ev.Identifier, ev.Allowed)
	default:
		return fmt.Sprintf("%s round=%d", ev.Kind, ev.Round)
	}
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}
	var caller string

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List journal receipts",
		Long: `List committed calls from the receipt journal in seq order.

Each receipt shows the call and the events it produced: bids, deposit
credits, extensions, round closes and openings, withdrawals.

Examples:
  idauction trace --db ./auction.db
  idauction trace --db ./auction.db --after 100 --limit 20
  idauction trace --db ./auction.db --caller b2
  idauction trace --db ./auction.db --tx 0190b6a2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Caller = ir.Address(caller)
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only receipts with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of receipts (0 = all)")
	cmd.Flags().StringVar(&opts.TxID, "tx", "", "show the receipt with this correlation token")
	cmd.Flags().StringVar(&caller, "caller", "", "only receipts of calls by this address")
	cmd.MarkFlagsMutuallyExclusive("tx", "caller")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
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

	var receipts []ir.Receipt
	switch {
	case opts.TxID != "":
		r, err := st.ReceiptByTxID(ctx, opts.TxID)
		if errors.Is(err, store.ErrNotFound) {
			msg := fmt.Sprintf("no receipt with tx id %q", opts.TxID)
			_ = f.Error(ErrCodeGeneric, msg, nil)
			return NewExitError(ExitFailure, msg)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read receipt", err)
		}
		receipts = []ir.Receipt{r}
	case !opts.Caller.IsNone():
		receipts, err = st.ListReceiptsByCaller(ctx, opts.Caller)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list receipts", err)
		}
		receipts = page(receipts, opts.After, opts.Limit)
	default:
		receipts, err = st.ListReceipts(ctx, opts.After, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list receipts", err)
		}
	}

	return f.Success(buildTraceResult(receipts, opts.Verbose))
}

// page applies --after and --limit to an already filtered list.
func page(receipts []ir.Receipt, after int64, limit int) []ir.Receipt {
	out := receipts[:0]
	for _, r := range receipts {
		if r.Seq > after {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func buildTraceResult(receipts []ir.Receipt, verbose bool) TraceResult {
	result := TraceResult{
		Receipts: receipts,
		Stats: TraceStats{
			Receipts: len(receipts),
			ByOp:     make(map[ir.Op]int),
			Rounds:   make(map[uint64]int),
		},
		verbose: verbose,
	}
	for _, r := range receipts {
		result.Stats.ByOp[r.Call.Op]++
		result.Stats.Events += len(r.Events)
		for _, ev := range r.Events {
			if ev.Kind == ir.EventRoundClosed {
				result.Stats.Rounds[ev.Round]++
			}
		}
	}
	return result
}
