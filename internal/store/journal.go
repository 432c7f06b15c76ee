package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/storecart/internal/cart"
)

// Journal ops that are not cart actions. Both restore a recorded cart
// wholesale instead of reducing an action.
const (
	OpLoad = "load"
	OpUndo = "undo"
)

// Entry is one committed transition.
type Entry struct {
	Seq       int64
	CartKey   string
	Op        string // cart.Kind value, OpLoad or OpUndo
	ProductID string
	Quantity  int
	Action    []byte    // cart.MarshalAction output; "{}" for restores
	Cart      cart.Cart // committed cart after the transition
}

// IsRestore reports whether the entry replaces the cart instead of reducing.
func (e Entry) IsRestore() bool {
	return e.Op == OpLoad || e.Op == OpUndo
}

// AppendJournal inserts a journal entry.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency - a re-sent seq is ignored.
func (s *Store) AppendJournal(ctx context.Context, e Entry) error {
	cartJSON, err := cart.Marshal(e.Cart)
	if err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	action := e.Action
	if len(action) == 0 {
		action = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal
		(seq, cart_key, op, product_id, quantity, action, cart)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		e.Seq,
		e.CartKey,
		e.Op,
		e.ProductID,
		e.Quantity,
		string(action),
		string(cartJSON),
	)
	if err != nil {
		return fmt.Errorf("append journal seq %d: %w", e.Seq, err)
	}
	return nil
}

// ReadJournal returns all entries for cartKey ordered by seq.
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ReadJournal(ctx context.Context, cartKey string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, cart_key, op, product_id, quantity, action, cart
		FROM journal
		WHERE cart_key = ?
		ORDER BY seq ASC
	`, cartKey)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

// LastSeq returns the highest journal seq, or 0 for an empty journal.
// The engine clock resumes from this value.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM journal`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e        Entry
		action   string
		cartJSON string
	)
	if err := rows.Scan(&e.Seq, &e.CartKey, &e.Op, &e.ProductID, &e.Quantity, &action, &cartJSON); err != nil {
		return Entry{}, fmt.Errorf("scan journal: %w", err)
	}
	c, err := cart.Unmarshal([]byte(cartJSON))
	if err != nil {
		return Entry{}, fmt.Errorf("scan journal seq %d: %w", e.Seq, err)
	}
	e.Action = []byte(action)
	e.Cart = c
	return e, nil
}
