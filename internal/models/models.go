package models

import (
	"time"

	"matlog/internal/belt"
)

type EntryType string

const (
	EntryTraining EntryType = "training"
	EntryGeneral  EntryType = "general"
)

// SeedPromotionNote marks the promotion recorded when a profile is created.
const SeedPromotionNote = "Auto-created from profile creation."

// Profile is the single per-user training profile; ID is the external user id.
type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	AcademyName    *string   `json:"academyName,omitempty"`
	CurrentBelt    belt.Rank `json:"currentBelt"`
	CurrentStripes int       `json:"currentStripes"`
	CreatedAt      time.Time `json:"createdAt"`
}

// JournalEntry is a training session or general note. BeltAtTime is a
// snapshot taken at creation and never recomputed from the profile.
type JournalEntry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	EntryType      EntryType `json:"entryType"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	HighlightMoves string    `json:"highlightMoves"`
	WhatWentRight  string    `json:"whatWentRight"`
	WhatToImprove  string    `json:"whatToImprove"`
	BeltAtTime     belt.Rank `json:"beltAtTime"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Promotion is an immutable record of reaching a belt/stripe combination.
type Promotion struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Belt        belt.Rank `json:"belt"`
	Stripes     int       `json:"stripes"`
	Date        Date      `json:"date"`
	Notes       *string   `json:"notes,omitempty"`
	AcademyName *string   `json:"academyName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SeedPromotion builds the promotion that mirrors a freshly created profile.
func SeedPromotion(p Profile, today Date) Promotion {
	note := SeedPromotionNote
	return Promotion{
		UserID:  p.ID,
		Belt:    p.CurrentBelt,
		Stripes: p.CurrentStripes,
		Date:    today,
		Notes:   &note,
	}
}
