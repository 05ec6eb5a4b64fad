package store

import (
	"database/sql"
	"fmt"
	"time"

	"matlog/internal/belt"
	"matlog/internal/models"
)

// timeColumn scans timestamps from drivers that return time.Time (pgx) as
// well as those that hand back text (sqlite).
type timeColumn struct {
	time.Time
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	models.DateLayout,
}

func (c *timeColumn) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		c.Time = v.UTC()
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	case nil:
		c.Time = time.Time{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (c *timeColumn) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			c.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

type profileRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	AcademyName    sql.NullString `db:"academy_name"`
	CurrentBelt    string         `db:"current_belt"`
	CurrentStripes int            `db:"current_stripes"`
	CreatedAt      timeColumn     `db:"created_at"`
	UpdatedAt      timeColumn     `db:"updated_at"`
}

func (r profileRow) toModel() models.Profile {
	return models.Profile{
		ID:             r.ID,
		Name:           r.Name,
		AcademyName:    nullable(r.AcademyName),
		CurrentBelt:    belt.Rank(r.CurrentBelt),
		CurrentStripes: r.CurrentStripes,
		CreatedAt:      r.CreatedAt.Time,
	}
}

type journalEntryRow struct {
	ID             string     `db:"id"`
	UserID         string     `db:"user_id"`
	EntryType      string     `db:"entry_type"`
	Title          string     `db:"title"`
	Description    string     `db:"description"`
	HighlightMoves string     `db:"highlight_moves"`
	WhatWentRight  string     `db:"what_went_right"`
	WhatToImprove  string     `db:"what_to_improve"`
	BeltAtTime     string     `db:"belt_at_time"`
	CreatedAt      timeColumn `db:"created_at"`
	UpdatedAt      timeColumn `db:"updated_at"`
}

func (r journalEntryRow) toModel() models.JournalEntry {
	kind := models.EntryType(r.EntryType)
	if kind == "" {
		kind = models.EntryTraining
	}
	return models.JournalEntry{
		ID:             r.ID,
		UserID:         r.UserID,
		EntryType:      kind,
		Title:          r.Title,
		Description:    r.Description,
		HighlightMoves: r.HighlightMoves,
		WhatWentRight:  r.WhatWentRight,
		WhatToImprove:  r.WhatToImprove,
		BeltAtTime:     belt.Rank(r.BeltAtTime),
		CreatedAt:      r.CreatedAt.Time,
		UpdatedAt:      r.UpdatedAt.Time,
	}
}

type promotionRow struct {
	ID            string         `db:"id"`
	UserID        string         `db:"user_id"`
	Belt          string         `db:"belt"`
	Stripes       int            `db:"stripes"`
	PromotionDate timeColumn     `db:"promotion_date"`
	Notes         sql.NullString `db:"notes"`
	AcademyName   sql.NullString `db:"academy_name"`
	CreatedAt     timeColumn     `db:"created_at"`
}

func (r promotionRow) toModel() models.Promotion {
	return models.Promotion{
		ID:          r.ID,
		UserID:      r.UserID,
		Belt:        belt.Rank(r.Belt),
		Stripes:     r.Stripes,
		Date:        models.DateOf(r.PromotionDate.Time),
		Notes:       nullable(r.Notes),
		AcademyName: nullable(r.AcademyName),
		CreatedAt:   r.CreatedAt.Time,
	}
}
