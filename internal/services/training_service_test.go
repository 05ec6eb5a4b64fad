package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"matlog/internal/belt"
	"matlog/internal/models"
	"matlog/internal/store"
	"matlog/internal/testutil/testdb"
)

var t0 = time.Date(2025, 6, 14, 22, 30, 0, 0, time.UTC)

type fixture struct {
	conn *sqlx.DB
	st   *store.Store
	svc  *TrainingService
}

func newFixture(t *testing.T, enc *EncryptionService) fixture {
	t.Helper()
	conn := testdb.Open(t)
	st := store.New(conn).WithClock(testdb.Clock(t0))
	svc := NewTrainingService(st, enc, zaptest.NewLogger(t)).WithClock(func() time.Time { return t0 })
	return fixture{conn: conn, st: st, svc: svc}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func wantValidation(t *testing.T, err error, msg string) {
	t.Helper()
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want validation error %q", err, msg)
	}
	if ve.Message != msg {
		t.Errorf("message = %q, want %q", ve.Message, msg)
	}
}

func wantStoreError(t *testing.T, err error, msg string) {
	t.Helper()
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want store error %q", err, msg)
	}
	if se.Message != msg {
		t.Errorf("message = %q, want %q", se.Message, msg)
	}
}

func TestCreateProfileSeedsPromotion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	p, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: " Alex ", CurrentBelt: strPtr("blue"), CurrentStripes: intPtr(2)})
	if err != nil {
		t.Fatalf("CreateProfile() error: %v", err)
	}
	if p.ID != "u1" || p.Name != "Alex" || p.CurrentBelt != belt.Blue || p.CurrentStripes != 2 {
		t.Errorf("unexpected profile %+v", p)
	}

	promotions, err := f.svc.ListPromotions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListPromotions() error: %v", err)
	}
	if len(promotions) != 1 {
		t.Fatalf("got %d promotions, want 1 seed", len(promotions))
	}
	seed := promotions[0]
	if seed.Belt != belt.Blue || seed.Stripes != 2 || seed.Date.String() != "2025-06-14" {
		t.Errorf("unexpected seed %+v", seed)
	}
	if seed.Notes == nil || *seed.Notes != models.SeedPromotionNote {
		t.Errorf("seed notes = %v", seed.Notes)
	}
}

func TestCreateProfileDefaultsToWhite(t *testing.T) {
	f := newFixture(t, nil)
	p, err := f.svc.CreateProfile(context.Background(), "u1", models.NewProfile{Name: "Sam"})
	if err != nil {
		t.Fatalf("CreateProfile() error: %v", err)
	}
	if p.CurrentBelt != belt.White || p.CurrentStripes != 0 || p.AcademyName != nil {
		t.Errorf("unexpected defaults %+v", p)
	}
}

func TestCreateProfileTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	if _, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: "Sam"}); err != nil {
		t.Fatalf("CreateProfile() error: %v", err)
	}
	_, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: "Sam again"})
	if !errors.Is(err, ErrProfileExists) {
		t.Fatalf("second CreateProfile() error = %v, want ErrProfileExists", err)
	}
	if n, _ := f.st.CountPromotions(ctx, "u1"); n != 1 {
		t.Errorf("promotions = %d, want 1", n)
	}
}

func TestCreateProfileLosesInsertRace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	// Another request commits the same profile between our existence check
	// and our insert.
	testdb.Exec(t, f.conn, `CREATE TRIGGER concurrent_profile BEFORE INSERT ON profiles
        WHEN NOT EXISTS (SELECT 1 FROM profiles WHERE id = NEW.id)
        BEGIN
            INSERT INTO profiles (id, name, current_belt, current_stripes, created_at, updated_at)
            VALUES (NEW.id, 'Concurrent', NEW.current_belt, 0, NEW.created_at, NEW.updated_at);
        END;`)

	_, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: "Sam"})
	if !errors.Is(err, ErrProfileExists) {
		t.Fatalf("CreateProfile() error = %v, want ErrProfileExists", err)
	}
	if n, _ := f.st.CountPromotions(ctx, "u1"); n != 0 {
		t.Errorf("promotions = %d, want no seed for the losing request", n)
	}
}

func TestCreateProfileValidation(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.CreateProfile(context.Background(), "u1", models.NewProfile{Name: "  "})
	wantValidation(t, err, "Name is required.")
}

func TestCreateProfileRollsBackWhenSeedFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	testdb.Exec(t, f.conn, `CREATE TRIGGER fail_promotions BEFORE INSERT ON promotions BEGIN SELECT RAISE(ABORT, 'boom'); END;`)

	_, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: "Sam"})
	wantStoreError(t, err, "Failed to create profile.")

	p, err := f.svc.GetProfile(ctx, "u1")
	if err != nil || p != nil {
		t.Fatalf("GetProfile() after failed seed = %v, %v; want nil", p, err)
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	if _, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: "Sam", AcademyName: strPtr("Gracie Barra"), CurrentBelt: strPtr("blue"), CurrentStripes: intPtr(3)}); err != nil {
		t.Fatalf("CreateProfile() error: %v", err)
	}

	p, err := f.svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{CurrentBelt: models.Some("purple")})
	if err != nil {
		t.Fatalf("UpdateProfile() error: %v", err)
	}
	if p.CurrentBelt != belt.Purple || p.CurrentStripes != 0 {
		t.Errorf("belt change: got %s/%d, want purple/0", p.CurrentBelt, p.CurrentStripes)
	}
	if p.Name != "Sam" || p.AcademyName == nil || *p.AcademyName != "Gracie Barra" {
		t.Errorf("untouched fields changed: %+v", p)
	}

	p, err = f.svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{AcademyName: models.Some(""), CurrentStripes: models.Some(9)})
	if err != nil {
		t.Fatalf("UpdateProfile() error: %v", err)
	}
	if p.AcademyName != nil || p.CurrentStripes != 4 {
		t.Errorf("got academy %v stripes %d, want nil/4", p.AcademyName, p.CurrentStripes)
	}

	stored, _ := f.svc.GetProfile(ctx, "u1")
	if stored.CurrentStripes != 4 || stored.AcademyName != nil {
		t.Errorf("stored profile %+v", stored)
	}
}

func TestUpdateProfileErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{})
	wantValidation(t, err, "No profile updates provided.")

	_, err = f.svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{Name: models.Some("Sam")})
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("UpdateProfile() without profile = %v, want ErrProfileNotFound", err)
	}

	if _, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: "Sam"}); err != nil {
		t.Fatalf("CreateProfile() error: %v", err)
	}
	_, err = f.svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{CurrentBelt: models.Some("green")})
	wantValidation(t, err, "Unknown belt: green.")
}

func TestJournalEntrySnapshotsBelt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	e, err := f.svc.CreateJournalEntry(ctx, "u1", models.NewJournalEntry{Title: "Open mat"})
	if err != nil {
		t.Fatalf("CreateJournalEntry() error: %v", err)
	}
	if e.BeltAtTime != belt.White || e.EntryType != models.EntryTraining || e.ID == "" {
		t.Errorf("entry without profile = %+v", e)
	}

	if _, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: "Sam", CurrentBelt: strPtr("blue")}); err != nil {
		t.Fatalf("CreateProfile() error: %v", err)
	}
	blue, err := f.svc.CreateJournalEntry(ctx, "u1", models.NewJournalEntry{Title: "Drilling"})
	if err != nil {
		t.Fatalf("CreateJournalEntry() error: %v", err)
	}
	if blue.BeltAtTime != belt.Blue {
		t.Errorf("beltAtTime = %s, want blue", blue.BeltAtTime)
	}

	if _, err := f.svc.CreatePromotion(ctx, "u1", models.NewPromotion{Belt: "purple", Date: "2025-06-20"}); err != nil {
		t.Fatalf("CreatePromotion() error: %v", err)
	}
	got, err := f.svc.GetJournalEntry(ctx, "u1", blue.ID)
	if err != nil || got == nil {
		t.Fatalf("GetJournalEntry() = %v, %v", got, err)
	}
	if got.BeltAtTime != belt.Blue {
		t.Errorf("beltAtTime after promotion = %s, want blue", got.BeltAtTime)
	}
}

func TestJournalScopedAndIdempotentDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	e, err := f.svc.CreateJournalEntry(ctx, "owner", models.NewJournalEntry{Title: "Comp prep"})
	if err != nil {
		t.Fatalf("CreateJournalEntry() error: %v", err)
	}

	if got, err := f.svc.GetJournalEntry(ctx, "intruder", e.ID); err != nil || got != nil {
		t.Fatalf("foreign GetJournalEntry() = %v, %v; want nil", got, err)
	}
	if err := f.svc.DeleteJournalEntry(ctx, "intruder", e.ID); err != nil {
		t.Fatalf("foreign DeleteJournalEntry() error: %v", err)
	}
	if got, _ := f.svc.GetJournalEntry(ctx, "owner", e.ID); got == nil {
		t.Fatal("foreign delete removed the owner's entry")
	}

	for i := 0; i < 2; i++ {
		if err := f.svc.DeleteJournalEntry(ctx, "owner", e.ID); err != nil {
			t.Fatalf("DeleteJournalEntry() #%d error: %v", i+1, err)
		}
	}
	entries, err := f.svc.ListJournal(ctx, "owner")
	if err != nil || len(entries) != 0 {
		t.Fatalf("ListJournal() after delete = %d entries, %v", len(entries), err)
	}
}

func TestCreateJournalEntryValidation(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.CreateJournalEntry(context.Background(), "u1", models.NewJournalEntry{Title: "x", EntryType: "sparring"})
	wantValidation(t, err, "Entry type must be training or general.")
}

func TestJournalEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	enc, err := NewEncryptionService("a-long-enough-journal-secret", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewEncryptionService() error: %v", err)
	}
	f := newFixture(t, enc)

	e, err := f.svc.CreateJournalEntry(ctx, "u1", models.NewJournalEntry{
		Title:          "Rolling",
		Description:    "Felt sharp",
		HighlightMoves: "Kimura from closed guard",
	})
	if err != nil {
		t.Fatalf("CreateJournalEntry() error: %v", err)
	}
	if e.Description != "Felt sharp" {
		t.Errorf("returned description = %q, want plaintext", e.Description)
	}

	var raw string
	if err := f.conn.Get(&raw, `SELECT description FROM journal_entries WHERE id = ?`, e.ID); err != nil {
		t.Fatalf("select raw description: %v", err)
	}
	if !strings.HasPrefix(raw, "enc:v1:") {
		t.Errorf("stored description = %q, want sealed value", raw)
	}

	list, err := f.svc.ListJournal(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListJournal() = %d, %v", len(list), err)
	}
	if list[0].Description != "Felt sharp" || list[0].HighlightMoves != "Kimura from closed guard" {
		t.Errorf("decrypted entry = %+v", list[0])
	}
	if list[0].Title != "Rolling" {
		t.Errorf("title = %q", list[0].Title)
	}
}

func TestJournalUndecryptableFieldFallsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	// Written while encryption was off; looks sealed but is not.
	if _, err := f.svc.CreateJournalEntry(ctx, "u1", models.NewJournalEntry{Title: "Notes", Description: "enc:v1:not-sealed"}); err != nil {
		t.Fatalf("CreateJournalEntry() error: %v", err)
	}
	if _, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: "Sam"}); err != nil {
		t.Fatalf("CreateProfile() error: %v", err)
	}

	core, logs := observer.New(zap.WarnLevel)
	enc, err := NewEncryptionService("a-long-enough-journal-secret", zap.New(core))
	if err != nil {
		t.Fatalf("NewEncryptionService() error: %v", err)
	}
	svc := NewTrainingService(f.st, enc, zaptest.NewLogger(t)).WithClock(func() time.Time { return t0 })

	list, err := svc.ListJournal(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListJournal() = %d, %v", len(list), err)
	}
	if list[0].Description != "enc:v1:not-sealed" {
		t.Errorf("description = %q, want stored value", list[0].Description)
	}
	d, err := svc.Dashboard(ctx, "u1")
	if err != nil || len(d.RecentEntries) != 1 || d.RecentEntries[0].Description != "enc:v1:not-sealed" {
		t.Fatalf("Dashboard() = %+v, %v", d.RecentEntries, err)
	}
	if got, err := svc.GetJournalEntry(ctx, "u1", list[0].ID); err != nil || got == nil {
		t.Fatalf("GetJournalEntry() = %v, %v", got, err)
	}
	if n := logs.FilterMessage("journal field not decryptable; returning stored value").Len(); n != 3 {
		t.Errorf("warnings = %d, want one per read", n)
	}
}

func TestNewEncryptionServiceWithoutSecret(t *testing.T) {
	enc, err := NewEncryptionService("", zaptest.NewLogger(t))
	if err != nil || enc != nil {
		t.Fatalf("NewEncryptionService(\"\") = %v, %v; want nil, nil", enc, err)
	}
	e := models.JournalEntry{Description: "plain"}
	if err := enc.EncryptJournal(&e); err != nil || e.Description != "plain" {
		t.Errorf("nil service changed entry: %q, %v", e.Description, err)
	}
}

func TestCreatePromotionUpdatesProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	if _, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: "Sam", CurrentBelt: strPtr("blue"), CurrentStripes: intPtr(4)}); err != nil {
		t.Fatalf("CreateProfile() error: %v", err)
	}

	pr, err := f.svc.CreatePromotion(ctx, "u1", models.NewPromotion{Belt: "Purple", Stripes: 1, Date: "2025-07-01", Notes: strPtr(" Finally ")})
	if err != nil {
		t.Fatalf("CreatePromotion() error: %v", err)
	}
	if pr.Belt != belt.Purple || pr.Stripes != 1 || pr.Notes == nil || *pr.Notes != "Finally" {
		t.Errorf("unexpected promotion %+v", pr)
	}

	p, _ := f.svc.GetProfile(ctx, "u1")
	if p.CurrentBelt != belt.Purple || p.CurrentStripes != 1 {
		t.Errorf("profile rank = %s/%d, want purple/1", p.CurrentBelt, p.CurrentStripes)
	}

	promotions, _ := f.svc.ListPromotions(ctx, "u1")
	if len(promotions) != 2 || promotions[0].ID != pr.ID {
		t.Errorf("promotions = %+v, want newest first", promotions)
	}
}

func TestCreatePromotionWithoutProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	if _, err := f.svc.CreatePromotion(ctx, "u1", models.NewPromotion{Belt: "blue", Date: "2025-07-01"}); err != nil {
		t.Fatalf("CreatePromotion() error: %v", err)
	}
	if n, _ := f.st.CountPromotions(ctx, "u1"); n != 1 {
		t.Errorf("promotions = %d, want 1", n)
	}
	if p, _ := f.svc.GetProfile(ctx, "u1"); p != nil {
		t.Errorf("profile was created: %+v", p)
	}
}

func TestCreatePromotionRollsBackWhenProfileUpdateFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	if _, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: "Sam"}); err != nil {
		t.Fatalf("CreateProfile() error: %v", err)
	}
	testdb.Exec(t, f.conn, `CREATE TRIGGER fail_profiles BEFORE UPDATE ON profiles BEGIN SELECT RAISE(ABORT, 'boom'); END;`)

	_, err := f.svc.CreatePromotion(ctx, "u1", models.NewPromotion{Belt: "blue", Date: "2025-07-01"})
	wantStoreError(t, err, "Failed to update profile after promotion.")

	if n, _ := f.st.CountPromotions(ctx, "u1"); n != 1 {
		t.Errorf("promotions = %d, want only the seed", n)
	}
	p, _ := f.svc.GetProfile(ctx, "u1")
	if p.CurrentBelt != belt.White {
		t.Errorf("profile belt = %s, want white", p.CurrentBelt)
	}
}

func TestCreatePromotionValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	tests := []struct {
		in   models.NewPromotion
		want string
	}{
		{models.NewPromotion{Date: "2025-01-01"}, "Belt is required."},
		{models.NewPromotion{Belt: "blue"}, "Date is required."},
		{models.NewPromotion{Belt: "blue", Date: "01/02/2025"}, "Date must be formatted as YYYY-MM-DD."},
		{models.NewPromotion{Belt: "blue", Date: "2025-01-01", Stripes: -1}, "Stripes cannot be negative."},
	}
	for _, tt := range tests {
		_, err := f.svc.CreatePromotion(ctx, "u1", tt.in)
		wantValidation(t, err, tt.want)
	}
	if n, _ := f.st.CountPromotions(ctx, "u1"); n != 0 {
		t.Errorf("invalid promotions were stored: %d", n)
	}
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	d, err := f.svc.Dashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("Dashboard() error: %v", err)
	}
	if d.Profile != nil || len(d.RecentEntries) != 0 || d.LatestPromotion != nil {
		t.Errorf("empty dashboard = %+v", d)
	}

	if _, err := f.svc.CreateProfile(ctx, "u1", models.NewProfile{Name: "Sam", CurrentBelt: strPtr("black"), CurrentStripes: intPtr(3)}); err != nil {
		t.Fatalf("CreateProfile() error: %v", err)
	}
	for i := 0; i < 7; i++ {
		in := models.NewJournalEntry{Title: "Session"}
		if i%3 == 0 {
			in.EntryType = string(models.EntryGeneral)
		}
		if _, err := f.svc.CreateJournalEntry(ctx, "u1", in); err != nil {
			t.Fatalf("CreateJournalEntry() error: %v", err)
		}
	}

	d, err = f.svc.Dashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("Dashboard() error: %v", err)
	}
	if d.CurrentRankLabel != "Black Belt - 3rd Degree" {
		t.Errorf("rank label = %q", d.CurrentRankLabel)
	}
	if len(d.RecentEntries) != recentEntriesLimit {
		t.Errorf("recent entries = %d, want %d", len(d.RecentEntries), recentEntriesLimit)
	}
	if d.TotalEntries != 7 || d.TrainingEntries != 4 {
		t.Errorf("counts = %d/%d, want 7/4", d.TotalEntries, d.TrainingEntries)
	}
	if d.TotalPromotions != 1 || d.LatestPromotion == nil || d.LatestPromotion.Belt != belt.Black {
		t.Errorf("promotions = %d latest %+v", d.TotalPromotions, d.LatestPromotion)
	}

	// Backfilled history does not displace the latest promotion.
	if _, err := f.svc.CreatePromotion(ctx, "u1", models.NewPromotion{Belt: "brown", Date: "2024-01-01"}); err != nil {
		t.Fatalf("CreatePromotion() error: %v", err)
	}
	d, err = f.svc.Dashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("Dashboard() error: %v", err)
	}
	if d.TotalPromotions != 2 || d.LatestPromotion == nil || d.LatestPromotion.Date.String() != "2025-06-14" {
		t.Errorf("promotions = %d latest %+v, want 2 with the 2025-06-14 seed latest", d.TotalPromotions, d.LatestPromotion)
	}
}
