package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/idauction/internal/ir"
)

// ErrNotFound is returned when a requested receipt does not exist.
var ErrNotFound = errors.New("not found")

// Load returns the committed state and the seq of the last receipt.
// An empty database yields ir.NewState() and seq 0.
func (s *Store) Load(ctx context.Context) (*ir.State, int64, error) {
	state := ir.NewState()

	if err := s.loadRound(ctx, state); err != nil {
		return nil, 0, err
	}
	if err := s.loadParams(ctx, state); err != nil {
		return nil, 0, err
	}
	if err := s.loadAccounting(ctx, state); err != nil {
		return nil, 0, err
	}
	if err := s.loadRegistry(ctx, state); err != nil {
		return nil, 0, err
	}
	if err := s.loadDeposits(ctx, state); err != nil {
		return nil, 0, err
	}
	if err := s.loadWhitelist(ctx, state); err != nil {
		return nil, 0, err
	}
	if err := s.loadResults(ctx, state); err != nil {
		return nil, 0, err
	}

	seq, err := s.LastSeq(ctx)
	if err != nil {
		return nil, 0, err
	}
	if state.LastTime, err = s.lastTime(ctx); err != nil {
		return nil, 0, err
	}
	return state, seq, nil
}

// lastTime returns the call time of the newest receipt, or 0 for an empty
// journal.
func (s *Store) lastTime(ctx context.Context) (int64, error) {
	var t sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(time) FROM receipts`).Scan(&t); err != nil {
		return 0, fmt.Errorf("query last time: %w", err)
	}
	return t.Int64, nil
}

// LastSeq returns the seq of the newest receipt, or 0 for an empty journal.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM receipts`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) loadRound(ctx context.Context, state *ir.State) error {
	var (
		active, round, end int64
		bid, bidder        string
		paused             int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT active_identifier, highest_bid, highest_bidder, round, scheduled_end, paused
		FROM round_state WHERE id = 1
	`).Scan(&active, &bid, &bidder, &round, &end, &paused)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load round state: %w", err)
	}

	highest, err := parseAmount("highest_bid", bid)
	if err != nil {
		return fmt.Errorf("load round state: %w", err)
	}
	state.Round = ir.RoundState{
		ActiveIdentifier: keyIdentifier(active),
		HighestBid:       highest,
		HighestBidder:    ir.Address(bidder),
		Round:            uint64(round),
		ScheduledEnd:     end,
		Paused:           paused != 0,
	}
	return nil
}

func (s *Store) loadParams(ctx context.Context, state *ir.State) error {
	var p ir.Parameters
	err := s.db.QueryRowContext(ctx, `
		SELECT min_increment_bp, extension_window, round_duration
		FROM parameters WHERE id = 1
	`).Scan(&p.MinIncrementBp, &p.ExtensionWindow, &p.RoundDuration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load parameters: %w", err)
	}
	state.Params = &p
	return nil
}

func (s *Store) loadAccounting(ctx context.Context, state *ir.State) error {
	var received, withdrawn, proceeds string
	err := s.db.QueryRowContext(ctx, `
		SELECT received, withdrawn, proceeds FROM accounting WHERE id = 1
	`).Scan(&received, &withdrawn, &proceeds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load accounting: %w", err)
	}

	var a ir.Accounting
	if a.Received, err = parseAmount("received", received); err != nil {
		return fmt.Errorf("load accounting: %w", err)
	}
	if a.Withdrawn, err = parseAmount("withdrawn", withdrawn); err != nil {
		return fmt.Errorf("load accounting: %w", err)
	}
	if a.Proceeds, err = parseAmount("proceeds", proceeds); err != nil {
		return fmt.Errorf("load accounting: %w", err)
	}
	state.Accounting = a
	return nil
}

func (s *Store) loadRegistry(ctx context.Context, state *ir.State) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identifier, owner, created_time, supply_meta FROM registry
	`)
	if err != nil {
		return fmt.Errorf("query registry: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    int64
			owner string
			e     ir.RegistryEntry
		)
		if err := rows.Scan(&id, &owner, &e.CreatedTime, &e.SupplyMeta); err != nil {
			return fmt.Errorf("scan registry: %w", err)
		}
		e.Owner = ir.Address(owner)
		state.Registry[keyIdentifier(id)] = e
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate registry: %w", err)
	}
	return nil
}

func (s *Store) loadDeposits(ctx context.Context, state *ir.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT address, balance FROM deposits`)
	if err != nil {
		return fmt.Errorf("query deposits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr, balance string
		if err := rows.Scan(&addr, &balance); err != nil {
			return fmt.Errorf("scan deposit: %w", err)
		}
		bal, err := parseAmount("balance", balance)
		if err != nil {
			return fmt.Errorf("deposit %q: %w", addr, err)
		}
		state.Deposits[ir.Address(addr)] = bal
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate deposits: %w", err)
	}
	return nil
}

func (s *Store) loadWhitelist(ctx context.Context, state *ir.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT identifier FROM whitelist`)
	if err != nil {
		return fmt.Errorf("query whitelist: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan whitelist: %w", err)
		}
		state.Whitelist[keyIdentifier(id)] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate whitelist: %w", err)
	}
	return nil
}

func (s *Store) loadResults(ctx context.Context, state *ir.State) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT round, identifier, winner, price, closed_at FROM round_results
	`)
	if err != nil {
		return fmt.Errorf("query round results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			round, id     int64
			winner, price string
			r             ir.RoundResult
		)
		if err := rows.Scan(&round, &id, &winner, &price, &r.ClosedAt); err != nil {
			return fmt.Errorf("scan round result: %w", err)
		}
		if r.Price, err = parseAmount("price", price); err != nil {
			return fmt.Errorf("round result %d: %w", round, err)
		}
		r.Round = uint64(round)
		r.Identifier = keyIdentifier(id)
		r.Winner = ir.Address(winner)
		state.Results[r.Round] = r
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate round results: %w", err)
	}
	return nil
}

// ListReceipts returns receipts with seq > afterSeq in seq order.
// limit <= 0 means no limit. Returns an empty slice (not nil) when none match.
func (s *Store) ListReceipts(ctx context.Context, afterSeq int64, limit int) ([]ir.Receipt, error) {
	query := `
		SELECT seq, id, tx_id, call, events
		FROM receipts
		WHERE seq > ?
		ORDER BY seq ASC`
	args := []any{afterSeq}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	receipts := []ir.Receipt{}
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return receipts, nil
}

// ListReceiptsByCaller returns the receipts of calls made by caller, in
// seq order.
func (s *Store) ListReceiptsByCaller(ctx context.Context, caller ir.Address) ([]ir.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, tx_id, call, events
		FROM receipts
		WHERE caller = ?
		ORDER BY seq ASC
	`, string(caller))
	if err != nil {
		return nil, fmt.Errorf("query receipts by caller: %w", err)
	}
	defer rows.Close()

	receipts := []ir.Receipt{}
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return receipts, nil
}

// ReadReceipt returns the receipt with the given seq, or ErrNotFound.
func (s *Store) ReadReceipt(ctx context.Context, seq int64) (ir.Receipt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, tx_id, call, events FROM receipts WHERE seq = ?
	`, seq)
	r, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Receipt{}, fmt.Errorf("receipt seq %d: %w", seq, ErrNotFound)
	}
	return r, err
}

// ReceiptByTxID returns the receipt carrying the given correlation token,
// or ErrNotFound.
func (s *Store) ReceiptByTxID(ctx context.Context, txID string) (ir.Receipt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, tx_id, call, events FROM receipts WHERE tx_id = ?
	`, txID)
	r, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Receipt{}, fmt.Errorf("receipt tx %q: %w", txID, ErrNotFound)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row scanner) (ir.Receipt, error) {
	var (
		r                    ir.Receipt
		callJSON, eventsJSON string
	)
	if err := row.Scan(&r.Seq, &r.ID, &r.TxID, &callJSON, &eventsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Receipt{}, err
		}
		return ir.Receipt{}, fmt.Errorf("scan receipt: %w", err)
	}

	var err error
	if r.Call, err = unmarshalCall(callJSON); err != nil {
		return ir.Receipt{}, fmt.Errorf("receipt seq %d: %w", r.Seq, err)
	}
	if r.Events, err = unmarshalEvents(eventsJSON); err != nil {
		return ir.Receipt{}, fmt.Errorf("receipt seq %d: %w", r.Seq, err)
	}
	return r, nil
}
