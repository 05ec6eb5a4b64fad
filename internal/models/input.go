package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"matlog/internal/belt"
)

// ValidationError is a caller mistake that is safe to echo back verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Optional records whether a JSON field was present at all, so that an
// omitted field and an explicit null or "" can be told apart.
type Optional[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// trimmedOrNil trims s and maps blank values to nil.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func parseRank(s string) (belt.Rank, error) {
	r, err := belt.Parse(s)
	if err != nil {
		return "", invalid("Unknown belt: %s.", strings.TrimSpace(s))
	}
	return r, nil
}

func checkStripes(stripes int) error {
	if stripes < 0 {
		return invalid("Stripes cannot be negative.")
	}
	return nil
}

type NewProfile struct {
	Name           string  `json:"name"`
	AcademyName    *string `json:"academyName"`
	CurrentBelt    *string `json:"currentBelt"`
	CurrentStripes *int    `json:"currentStripes"`
}

// ToProfile validates the request and returns the profile to insert for userID.
func (in NewProfile) ToProfile(userID string) (Profile, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Profile{}, invalid("Name is required.")
	}
	rank := belt.White
	if in.CurrentBelt != nil && strings.TrimSpace(*in.CurrentBelt) != "" {
		r, err := parseRank(*in.CurrentBelt)
		if err != nil {
			return Profile{}, err
		}
		rank = r
	}
	stripes := 0
	if in.CurrentStripes != nil {
		if err := checkStripes(*in.CurrentStripes); err != nil {
			return Profile{}, err
		}
		stripes = belt.ClampStripes(rank, *in.CurrentStripes)
	}
	return Profile{
		ID:             userID,
		Name:           name,
		AcademyName:    trimmedOrNil(in.AcademyName),
		CurrentBelt:    rank,
		CurrentStripes: stripes,
	}, nil
}

type ProfileUpdate struct {
	Name           Optional[string] `json:"name"`
	AcademyName    Optional[string] `json:"academyName"`
	CurrentBelt    Optional[string] `json:"currentBelt"`
	CurrentStripes Optional[int]    `json:"currentStripes"`
}

// Supplied reports whether any field was present in the request.
func (in ProfileUpdate) Supplied() bool {
	return in.Name.Set || in.AcademyName.Set || in.CurrentBelt.Set || in.CurrentStripes.Set
}

// ProfileChanges is a resolved partial update; nil fields are left untouched.
// AcademyName is set with ClearAcademy to store NULL.
type ProfileChanges struct {
	Name           *string
	AcademyName    *string
	ClearAcademy   bool
	CurrentBelt    *belt.Rank
	CurrentStripes *int
}

func (c ProfileChanges) Empty() bool {
	return c.Name == nil && c.AcademyName == nil && !c.ClearAcademy && c.CurrentBelt == nil && c.CurrentStripes == nil
}

// Resolve validates the update against the stored profile. A belt change
// without an explicit stripe count resets stripes to zero; any stripe value is
// clamped against the belt the profile will hold afterwards.
func (in ProfileUpdate) Resolve(current Profile) (ProfileChanges, error) {
	var c ProfileChanges
	if !in.Supplied() {
		return c, invalid("No profile updates provided.")
	}
	if in.Name.Set {
		name := strings.TrimSpace(in.Name.Value)
		if name == "" {
			return c, invalid("Name is required.")
		}
		c.Name = &name
	}
	if in.AcademyName.Set {
		if academy := trimmedOrNil(&in.AcademyName.Value); academy != nil {
			c.AcademyName = academy
		} else {
			c.ClearAcademy = true
		}
	}
	rank := current.CurrentBelt
	if in.CurrentBelt.Set {
		r, err := parseRank(in.CurrentBelt.Value)
		if err != nil {
			return c, err
		}
		c.CurrentBelt = &r
		rank = r
	}
	switch {
	case in.CurrentStripes.Set:
		if err := checkStripes(in.CurrentStripes.Value); err != nil {
			return c, err
		}
		s := belt.ClampStripes(rank, in.CurrentStripes.Value)
		c.CurrentStripes = &s
	case c.CurrentBelt != nil && *c.CurrentBelt != current.CurrentBelt:
		zero := 0
		c.CurrentStripes = &zero
	}
	return c, nil
}

type NewJournalEntry struct {
	EntryType      string `json:"entryType"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	HighlightMoves string `json:"highlightMoves"`
	WhatWentRight  string `json:"whatWentRight"`
	WhatToImprove  string `json:"whatToImprove"`
}

// ToEntry validates the request and stamps the entry with beltAtTime.
func (in NewJournalEntry) ToEntry(userID string, beltAtTime belt.Rank) (JournalEntry, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return JournalEntry{}, invalid("Title is required.")
	}
	kind := EntryType(strings.ToLower(strings.TrimSpace(in.EntryType)))
	switch kind {
	case "":
		kind = EntryTraining
	case EntryTraining, EntryGeneral:
	default:
		return JournalEntry{}, invalid("Entry type must be training or general.")
	}
	e := JournalEntry{
		UserID:      userID,
		EntryType:   kind,
		Title:       title,
		Description: in.Description,
		BeltAtTime:  beltAtTime,
	}
	if kind == EntryTraining {
		e.HighlightMoves = in.HighlightMoves
		e.WhatWentRight = in.WhatWentRight
		e.WhatToImprove = in.WhatToImprove
	}
	return e, nil
}

type NewPromotion struct {
	Belt        string  `json:"belt"`
	Stripes     int     `json:"stripes"`
	Date        string  `json:"date"`
	Notes       *string `json:"notes"`
	AcademyName *string `json:"academyName"`
}

func (in NewPromotion) ToPromotion(userID string) (Promotion, error) {
	if strings.TrimSpace(in.Belt) == "" {
		return Promotion{}, invalid("Belt is required.")
	}
	if strings.TrimSpace(in.Date) == "" {
		return Promotion{}, invalid("Date is required.")
	}
	rank, err := parseRank(in.Belt)
	if err != nil {
		return Promotion{}, err
	}
	if err := checkStripes(in.Stripes); err != nil {
		return Promotion{}, err
	}
	date, err := ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return Promotion{}, invalid("Date must be formatted as YYYY-MM-DD.")
	}
	return Promotion{
		UserID:      userID,
		Belt:        rank,
		Stripes:     belt.ClampStripes(rank, in.Stripes),
		Date:        date,
		Notes:       trimmedOrNil(in.Notes),
		AcademyName: trimmedOrNil(in.AcademyName),
	}, nil
}
