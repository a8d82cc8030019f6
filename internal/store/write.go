package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/idauction/internal/ir"
)

// Commit writes a call's changeset and its receipt in one transaction.
//
// hook, when non-nil, runs after every write is staged and before COMMIT.
// If it fails, the transaction is rolled back and the hook's error is
// returned as-is so callers can inspect it with errors.As.
//
// Registry rows are inserted, never replaced: awarding an identifier twice
// is a constraint violation.
func (s *Store) Commit(ctx context.Context, cs ir.Changeset, hook func(context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if err := writeRound(ctx, tx, cs.Round); err != nil {
		return err
	}
	if err := writeAccounting(ctx, tx, cs.Accounting); err != nil {
		return err
	}
	if cs.Params != nil {
		if err := writeParams(ctx, tx, *cs.Params); err != nil {
			return err
		}
	}
	if err := writeAwards(ctx, tx, cs.Awards); err != nil {
		return err
	}
	if err := writeDeposits(ctx, tx, cs.Deposits); err != nil {
		return err
	}
	if err := writeWhitelist(ctx, tx, cs.Whitelist); err != nil {
		return err
	}
	if err := writeResults(ctx, tx, cs.Results); err != nil {
		return err
	}
	if err := writeReceipt(ctx, tx, cs.Receipt); err != nil {
		return err
	}

	if hook != nil {
		if err := hook(ctx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seq %d: %w", cs.Receipt.Seq, err)
	}
	return nil
}

func writeRound(ctx context.Context, tx *sql.Tx, r ir.RoundState) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO round_state
		(id, active_identifier, highest_bid, highest_bidder, round, scheduled_end, paused)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			active_identifier = excluded.active_identifier,
			highest_bid       = excluded.highest_bid,
			highest_bidder    = excluded.highest_bidder,
			round             = excluded.round,
			scheduled_end     = excluded.scheduled_end,
			paused            = excluded.paused
	`,
		identifierKey(r.ActiveIdentifier),
		r.HighestBid.String(),
		string(r.HighestBidder),
		int64(r.Round),
		r.ScheduledEnd,
		boolInt(r.Paused),
	)
	if err != nil {
		return fmt.Errorf("write round state: %w", err)
	}
	return nil
}

func writeAccounting(ctx context.Context, tx *sql.Tx, a ir.Accounting) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounting (id, received, withdrawn, proceeds)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			received  = excluded.received,
			withdrawn = excluded.withdrawn,
			proceeds  = excluded.proceeds
	`, a.Received.String(), a.Withdrawn.String(), a.Proceeds.String())
	if err != nil {
		return fmt.Errorf("write accounting: %w", err)
	}
	return nil
}

func writeParams(ctx context.Context, tx *sql.Tx, p ir.Parameters) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO parameters (id, min_increment_bp, extension_window, round_duration)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			min_increment_bp = excluded.min_increment_bp,
			extension_window = excluded.extension_window,
			round_duration   = excluded.round_duration
	`, p.MinIncrementBp, p.ExtensionWindow, p.RoundDuration)
	if err != nil {
		return fmt.Errorf("write parameters: %w", err)
	}
	return nil
}

func writeAwards(ctx context.Context, tx *sql.Tx, awards map[ir.Identifier]ir.RegistryEntry) error {
	for id, e := range awards {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO registry (identifier, owner, created_time, supply_meta)
			VALUES (?, ?, ?, ?)
		`, identifierKey(id), string(e.Owner), e.CreatedTime, e.SupplyMeta)
		if err != nil {
			return fmt.Errorf("write registry %d: %w", id, err)
		}
	}
	return nil
}

func writeDeposits(ctx context.Context, tx *sql.Tx, deposits map[ir.Address]ir.Amount) error {
	for addr, bal := range deposits {
		var err error
		if bal.IsZero() {
			_, err = tx.ExecContext(ctx, `DELETE FROM deposits WHERE address = ?`, string(addr))
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO deposits (address, balance) VALUES (?, ?)
				ON CONFLICT(address) DO UPDATE SET balance = excluded.balance
			`, string(addr), bal.String())
		}
		if err != nil {
			return fmt.Errorf("write deposit %q: %w", addr, err)
		}
	}
	return nil
}

func writeWhitelist(ctx context.Context, tx *sql.Tx, whitelist map[ir.Identifier]bool) error {
	for id, allowed := range whitelist {
		var err error
		if allowed {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO whitelist (identifier) VALUES (?) ON CONFLICT DO NOTHING`, identifierKey(id))
		} else {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM whitelist WHERE identifier = ?`, identifierKey(id))
		}
		if err != nil {
			return fmt.Errorf("write whitelist %d: %w", id, err)
		}
	}
	return nil
}

func writeResults(ctx context.Context, tx *sql.Tx, results []ir.RoundResult) error {
	for _, r := range results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO round_results (round, identifier, winner, price, closed_at)
			VALUES (?, ?, ?, ?, ?)
		`, int64(r.Round), identifierKey(r.Identifier), string(r.Winner), r.Price.String(), r.ClosedAt)
		if err != nil {
			return fmt.Errorf("write round result %d: %w", r.Round, err)
		}
	}
	return nil
}

func writeReceipt(ctx context.Context, tx *sql.Tx, r ir.Receipt) error {
	callJSON, err := marshalCall(r.Call)
	if err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	eventsJSON, err := marshalEvents(r.Events)
	if err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipts
		(seq, id, tx_id, op, caller, time, call, events, engine_version, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.Seq,
		r.ID,
		r.TxID,
		string(r.Call.Op),
		string(r.Call.Caller),
		r.Call.Time,
		callJSON,
		eventsJSON,
		ir.EngineVersion,
		ir.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("write receipt seq %d: %w", r.Seq, err)
	}
	return nil
}
