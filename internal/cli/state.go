package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/idauction/internal/ir"
)

// StateOptions holds flags for the state command.
type StateOptions struct {
	*RootOptions
	Database    string
	Identifiers []string
	Addresses   []string
	Rounds      []string
}

// IdentifierView is the registry view of one identifier.
type IdentifierView struct {
	Identifier  ir.Identifier `json:"identifier"`
	Owner       ir.Address    `json:"owner,omitempty"`
	CreatedTime int64         `json:"created_time,omitempty"`
	Reserved    bool          `json:"reserved"`
	Whitelisted bool          `json:"whitelisted"`
}

// DepositView is the withdrawable balance of one address.
type DepositView struct {
	Address ir.Address `json:"address"`
	Balance ir.Amount  `json:"balance"`
}

// StateView is the output of the state command.
type StateView struct {
	Seq         int64            `json:"seq"`
	Digest      string           `json:"digest"`
	Configured  bool             `json:"configured"`
	Parameters  *ir.Parameters   `json:"parameters,omitempty"`
	Round       ir.RoundState    `json:"round"`
	Accounting  ir.Accounting    `json:"accounting"`
	Identifiers []IdentifierView `json:"identifiers,omitempty"`
	Deposits    []DepositView    `json:"deposits,omitempty"`
	Results     []ir.RoundResult `json:"results,omitempty"`
}

func (v StateView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "seq:        %d\n", v.Seq)
	fmt.Fprintf(&b, "digest:     %s\n", v.Digest)
	if v.Parameters == nil {
		b.WriteString("parameters: (not configured)\n")
	} else {
		fmt.Fprintf(&b, "parameters: min_increment_bp=%d extension_window=%ds round_duration=%ds\n",
			v.Parameters.MinIncrementBp, v.Parameters.ExtensionWindow, v.Parameters.RoundDuration)
	}

	r := v.Round
	fmt.Fprintf(&b, "round:      %d (ends %d", r.Round, r.ScheduledEnd)
	if r.Paused {
		b.WriteString(", paused")
	}
	b.WriteString(")\n")
	if r.HasBid() {
		fmt.Fprintf(&b, "leader:     %s bids %s on %d\n", r.HighestBidder, r.HighestBid, r.ActiveIdentifier)
	} else {
		b.WriteString("leader:     (no bids)\n")
	}

	a := v.Accounting
	fmt.Fprintf(&b, "accounting: received=%s withdrawn=%s proceeds=%s", a.Received, a.Withdrawn, a.Proceeds)

	for _, id := range v.Identifiers {
		owner := "unowned"
		if !id.Owner.IsNone() {
			owner = fmt.Sprintf("owned by %s since %d", id.Owner, id.CreatedTime)
		}
		fmt.Fprintf(&b, "\nidentifier %d: %s reserved=%t whitelisted=%t", id.Identifier, owner, id.Reserved, id.Whitelisted)
	}
	for _, d := range v.Deposits {
		fmt.Fprintf(&b, "\ndeposit %s: %s", d.Address, d.Balance)
	}
	for _, res := range v.Results {
		if res.Winner.IsNone() {
			fmt.Fprintf(&b, "\nround %d: closed at %d without bids", res.Round, res.ClosedAt)
			continue
		}
		fmt.Fprintf(&b, "\nround %d: %d won by %s for %s at %d", res.Round, res.Identifier, res.Winner, res.Price, res.ClosedAt)
	}
	return b.String()
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show committed auction state",
		Long: `Show the committed round cursor, parameters and accounting.

State is read as committed. An expired round is shown as-is until the
next mutating call rolls it over.

Examples:
  idauction state --db ./auction.db
  idauction state --db ./auction.db --identifier 990 --address b2
  idauction state --db ./auction.db --result 0 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringSliceVar(&opts.Identifiers, "identifier", nil, "show registry entries for identifiers")
	cmd.Flags().StringSliceVar(&opts.Addresses, "address", nil, "show deposit balances for addresses")
	cmd.Flags().StringSliceVar(&opts.Rounds, "result", nil, "show results of closed rounds")

	return cmd
}

func runState(opts *StateOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd)

	ids, err := parseUints("identifier", opts.Identifiers)
	if err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flag", err)
	}
	rounds, err := parseUints("result", opts.Rounds)
	if err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flag", err)
	}

	s, err := openSession(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		_ = f.ErrorFrom(err)
		return err
	}
	defer s.Close()

	eng := s.engine
	digest, err := eng.Digest()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compute digest", err)
	}

	view := StateView{
		Seq:        eng.Seq(),
		Digest:     digest,
		Round:      eng.GetState(),
		Accounting: eng.GetAccounting(),
	}
	if p, ok := eng.GetParameters(); ok {
		view.Configured = true
		view.Parameters = &p
	}

	for _, raw := range ids {
		id := ir.Identifier(raw)
		entry := eng.GetIdentifierInfo(id)
		view.Identifiers = append(view.Identifiers, IdentifierView{
			Identifier:  id,
			Owner:       entry.Owner,
			CreatedTime: entry.CreatedTime,
			Reserved:    eng.IsReserved(id),
			Whitelisted: eng.IsWhitelisted(id),
		})
	}
	for _, addr := range opts.Addresses {
		view.Deposits = append(view.Deposits, DepositView{
			Address: ir.Address(addr),
			Balance: eng.GetDeposit(ir.Address(addr)),
		})
	}
	for _, round := range rounds {
		res, ok := eng.GetRoundResult(round)
		if !ok {
			msg := fmt.Sprintf("round %d has not closed", round)
			_ = f.Error(ErrCodeGeneric, msg, nil)
			return NewExitError(ExitFailure, msg)
		}
		view.Results = append(view.Results, res)
	}

	return f.Success(view)
}

func parseUints(flag string, values []string) ([]uint64, error) {
	out := make([]uint64, 0, len(values))
	for _, v := range values {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--%s %q: not an unsigned integer", flag, v)
		}
		out = append(out, n)
	}
	return out, nil
}
