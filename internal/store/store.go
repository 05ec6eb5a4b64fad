package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"matlog/internal/belt"
	"matlog/internal/models"
)

const (
	profileColumns   = `id, name, academy_name, current_belt, current_stripes, created_at, updated_at`
	journalColumns   = `id, user_id, entry_type, title, description, highlight_moves, what_went_right, what_to_improve, belt_at_time, created_at, updated_at`
	promotionColumns = `id, user_id, belt, stripes, promotion_date, notes, academy_name, created_at`
)

// ErrConflict is returned when an insert collides with an existing row.
var ErrConflict = errors.New("store: conflict")

// Repo runs user-scoped queries against either the pool or a transaction.
// Every journal and promotion query filters on user_id.
type Repo struct {
	q     sqlx.ExtContext
	now   func() time.Time
	newID func() string
}

// Store is the pooled entry point; InTx hands out a Repo bound to a transaction.
type Store struct {
	Repo
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{
		Repo: Repo{q: db, now: time.Now, newID: uuid.NewString},
		db:   db,
	}
}

// WithClock replaces the timestamp source, mainly for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InTx runs fn in a transaction, committing only if fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(*Repo) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(&Repo{q: tx, now: s.now, newID: s.newID}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repo) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *Repo) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q.ExecContext(ctx, r.q.Rebind(query), args...)
}

func (r *Repo) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, r.q, dest, r.q.Rebind(query), args...)
}

func (r *Repo) sel(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, r.q, dest, r.q.Rebind(query), args...)
}

// --- profiles ---

// GetProfile returns nil when the user has no profile yet.
func (r *Repo) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var row profileRow
	err := r.get(ctx, &row, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetProfile: %w", err)
	}
	p := row.toModel()
	return &p, nil
}

// InsertProfile returns ErrConflict when the user already has a profile,
// including one committed by a concurrent request.
func (r *Repo) InsertProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	now := r.timestamp()
	p.CreatedAt = now
	res, err := r.exec(ctx, `INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, toNull(p.AcademyName), string(p.CurrentBelt), p.CurrentStripes, now, now)
	if err != nil {
		return models.Profile{}, fmt.Errorf("store.InsertProfile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Profile{}, fmt.Errorf("store.InsertProfile: %w", err)
	}
	if n == 0 {
		return models.Profile{}, fmt.Errorf("store.InsertProfile: %w", ErrConflict)
	}
	return p, nil
}

// UpdateProfile writes only the supplied columns and returns the stored
// profile, or nil when the user has none.
func (r *Repo) UpdateProfile(ctx context.Context, userID string, c models.ProfileChanges) (*models.Profile, error) {
	setClauses := []string{}
	args := []any{}
	if c.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *c.Name)
	}
	if c.ClearAcademy {
		setClauses = append(setClauses, "academy_name = NULL")
	} else if c.AcademyName != nil {
		setClauses = append(setClauses, "academy_name = ?")
		args = append(args, *c.AcademyName)
	}
	if c.CurrentBelt != nil {
		setClauses = append(setClauses, "current_belt = ?")
		args = append(args, string(*c.CurrentBelt))
	}
	if c.CurrentStripes != nil {
		setClauses = append(setClauses, "current_stripes = ?")
		args = append(args, *c.CurrentStripes)
	}
	if len(setClauses) == 0 {
		return r.GetProfile(ctx, userID)
	}
	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, r.timestamp(), userID)

	query := "UPDATE profiles SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
	res, err := r.exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store.UpdateProfile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.GetProfile(ctx, userID)
}

// SetRank overwrites the profile's current belt and stripes. It reports
// whether a profile row was updated.
func (r *Repo) SetRank(ctx context.Context, userID string, rank belt.Rank, stripes int) (bool, error) {
	res, err := r.exec(ctx, `UPDATE profiles SET current_belt = ?, current_stripes = ?, updated_at = ? WHERE id = ?`,
		string(rank), stripes, r.timestamp(), userID)
	if err != nil {
		return false, fmt.Errorf("store.SetRank: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store.SetRank: %w", err)
	}
	return n > 0, nil
}

// CurrentBelt returns the profile's belt, or white when there is no profile.
func (r *Repo) CurrentBelt(ctx context.Context, userID string) (belt.Rank, error) {
	var rank string
	err := r.get(ctx, &rank, `SELECT current_belt FROM profiles WHERE id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return belt.White, nil
	}
	if err != nil {
		return "", fmt.Errorf("store.CurrentBelt: %w", err)
	}
	return belt.Rank(rank), nil
}

// --- journal entries ---

// ListJournal returns the user's entries newest first. limit <= 0 means all.
func (r *Repo) ListJournal(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	var rows []journalEntryRow
	if err := r.sel(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("store.ListJournal: %w", err)
	}
	out := make([]models.JournalEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

// GetJournalEntry returns nil when id does not exist or belongs to another user.
func (r *Repo) GetJournalEntry(ctx context.Context, userID, id string) (*models.JournalEntry, error) {
	var row journalEntryRow
	err := r.get(ctx, &row, `SELECT `+journalColumns+` FROM journal_entries WHERE id = ? AND user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetJournalEntry: %w", err)
	}
	e := row.toModel()
	return &e, nil
}

func (r *Repo) InsertJournalEntry(ctx context.Context, e models.JournalEntry) (models.JournalEntry, error) {
	now := r.timestamp()
	e.ID = r.newID()
	e.CreatedAt, e.UpdatedAt = now, now
	_, err := r.exec(ctx, `INSERT INTO journal_entries (`+journalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, string(e.EntryType), e.Title, e.Description, e.HighlightMoves,
		e.WhatWentRight, e.WhatToImprove, string(e.BeltAtTime), now, now)
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("store.InsertJournalEntry: %w", err)
	}
	return e, nil
}

// DeleteJournalEntry removes the entry if the user owns it and returns the
// number of rows deleted.
func (r *Repo) DeleteJournalEntry(ctx context.Context, userID, id string) (int64, error) {
	res, err := r.exec(ctx, `DELETE FROM journal_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("store.DeleteJournalEntry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type JournalCounts struct {
	Total    int `db:"total"`
	Training int `db:"training"`
}

func (r *Repo) CountJournal(ctx context.Context, userID string) (JournalCounts, error) {
	var c JournalCounts
	err := r.get(ctx, &c, `SELECT COUNT(*) AS total,
        COALESCE(SUM(CASE WHEN entry_type = 'training' THEN 1 ELSE 0 END), 0) AS training
        FROM journal_entries WHERE user_id = ?`, userID)
	if err != nil {
		return JournalCounts{}, fmt.Errorf("store.CountJournal: %w", err)
	}
	return c, nil
}

// --- promotions ---

// ListPromotions returns the user's promotions, most recent promotion date first.
func (r *Repo) ListPromotions(ctx context.Context, userID string) ([]models.Promotion, error) {
	var rows []promotionRow
	err := r.sel(ctx, &rows, `SELECT `+promotionColumns+` FROM promotions WHERE user_id = ?
        ORDER BY promotion_date DESC, created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("store.ListPromotions: %w", err)
	}
	out := make([]models.Promotion, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *Repo) InsertPromotion(ctx context.Context, p models.Promotion) (models.Promotion, error) {
	p.ID = r.newID()
	p.CreatedAt = r.timestamp()
	_, err := r.exec(ctx, `INSERT INTO promotions (`+promotionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, string(p.Belt), p.Stripes, p.Date.Time, toNull(p.Notes), toNull(p.AcademyName), p.CreatedAt)
	if err != nil {
		return models.Promotion{}, fmt.Errorf("store.InsertPromotion: %w", err)
	}
	return p, nil
}

// LatestPromotion returns the user's most recent promotion in ListPromotions
// order, or nil when there is none.
func (r *Repo) LatestPromotion(ctx context.Context, userID string) (*models.Promotion, error) {
	var row promotionRow
	err := r.get(ctx, &row, `SELECT `+promotionColumns+` FROM promotions WHERE user_id = ?
        ORDER BY promotion_date DESC, created_at DESC, id DESC LIMIT 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.LatestPromotion: %w", err)
	}
	p := row.toModel()
	return &p, nil
}

func (r *Repo) CountPromotions(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.get(ctx, &n, `SELECT COUNT(*) FROM promotions WHERE user_id = ?`, userID); err != nil {
		return 0, fmt.Errorf("store.CountPromotions: %w", err)
	}
	return n, nil
}
