package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"matlog/internal/belt"
	"matlog/internal/models"
	"matlog/internal/store"
)

const recentEntriesLimit = 5

// TrainingService applies the cross-entity rules of the journal: profile
// creation seeds the promotion history, promotions move the profile's rank
// and journal entries snapshot the rank they were written at. Every method is
// scoped to the userID it is given.
type TrainingService struct {
	store  *store.Store
	enc    *EncryptionService
	logger *zap.Logger
	now    func() time.Time
}

func NewTrainingService(s *store.Store, enc *EncryptionService, logger *zap.Logger) *TrainingService {
	return &TrainingService{store: s, enc: enc, logger: logger, now: time.Now}
}

// WithClock replaces the time source used for the seed promotion date.
func (s *TrainingService) WithClock(now func() time.Time) *TrainingService {
	s.now = now
	return s
}

func (s *TrainingService) today() models.Date {
	return models.DateOf(s.now().UTC())
}

// --- profile ---

// GetProfile returns nil when the user has not onboarded yet.
func (s *TrainingService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeErr("Failed to load profile.", err)
	}
	return p, nil
}

// CreateProfile inserts the profile and its seed promotion in one
// transaction; if the seed cannot be written the profile is not kept either.
func (s *TrainingService) CreateProfile(ctx context.Context, userID string, in models.NewProfile) (models.Profile, error) {
	p, err := in.ToProfile(userID)
	if err != nil {
		return models.Profile{}, err
	}

	var created models.Profile
	err = s.store.InTx(ctx, func(r *store.Repo) error {
		existing, err := r.GetProfile(ctx, userID)
		if err != nil {
			return storeErr("Failed to create profile.", err)
		}
		if existing != nil {
			return ErrProfileExists
		}
		created, err = r.InsertProfile(ctx, p)
		if errors.Is(err, store.ErrConflict) {
			return ErrProfileExists
		}
		if err != nil {
			return storeErr("Failed to create profile.", err)
		}
		if _, err := r.InsertPromotion(ctx, models.SeedPromotion(created, s.today())); err != nil {
			return storeErr("Failed to create profile.", err)
		}
		return nil
	})
	if err != nil {
		return models.Profile{}, s.txErr("Failed to create profile.", err)
	}
	return created, nil
}

// UpdateProfile applies a partial update. Changing belt without sending
// stripes resets stripes to zero.
func (s *TrainingService) UpdateProfile(ctx context.Context, userID string, in models.ProfileUpdate) (models.Profile, error) {
	if !in.Supplied() {
		_, err := in.Resolve(models.Profile{})
		return models.Profile{}, err
	}

	var updated models.Profile
	err := s.store.InTx(ctx, func(r *store.Repo) error {
		current, err := r.GetProfile(ctx, userID)
		if err != nil {
			return storeErr("Failed to update profile.", err)
		}
		if current == nil {
			return ErrProfileNotFound
		}
		changes, err := in.Resolve(*current)
		if err != nil {
			return err
		}
		if changes.Empty() {
			updated = *current
			return nil
		}
		p, err := r.UpdateProfile(ctx, userID, changes)
		if err != nil {
			return storeErr("Failed to update profile.", err)
		}
		if p == nil {
			return ErrProfileNotFound
		}
		updated = *p
		return nil
	})
	if err != nil {
		return models.Profile{}, s.txErr("Failed to update profile.", err)
	}
	return updated, nil
}

// --- journal ---

func (s *TrainingService) ListJournal(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	entries, err := s.store.ListJournal(ctx, userID, 0)
	if err != nil {
		return nil, storeErr("Failed to load journal entries.", err)
	}
	s.decryptAll(entries)
	return entries, nil
}

// GetJournalEntry returns nil both for unknown ids and for entries owned by
// someone else.
func (s *TrainingService) GetJournalEntry(ctx context.Context, userID, id string) (*models.JournalEntry, error) {
	e, err := s.store.GetJournalEntry(ctx, userID, id)
	if err != nil {
		return nil, storeErr("Failed to load journal entry.", err)
	}
	if e == nil {
		return nil, nil
	}
	s.enc.DecryptJournal(e)
	return e, nil
}

// CreateJournalEntry stamps the entry with the profile's belt at this moment,
// or white when the user has no profile.
func (s *TrainingService) CreateJournalEntry(ctx context.Context, userID string, in models.NewJournalEntry) (models.JournalEntry, error) {
	entry, err := in.ToEntry(userID, belt.White)
	if err != nil {
		return models.JournalEntry{}, err
	}
	rank, err := s.store.CurrentBelt(ctx, userID)
	if err != nil {
		return models.JournalEntry{}, storeErr("Failed to load profile for journal entry.", err)
	}
	entry.BeltAtTime = rank

	sealed := entry
	if err := s.enc.EncryptJournal(&sealed); err != nil {
		return models.JournalEntry{}, storeErr("Failed to create journal entry.", err)
	}
	stored, err := s.store.InsertJournalEntry(ctx, sealed)
	if err != nil {
		return models.JournalEntry{}, storeErr("Failed to create journal entry.", err)
	}
	entry.ID = stored.ID
	entry.CreatedAt, entry.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return entry, nil
}

// DeleteJournalEntry is idempotent: deleting a missing or foreign id succeeds.
func (s *TrainingService) DeleteJournalEntry(ctx context.Context, userID, id string) error {
	n, err := s.store.DeleteJournalEntry(ctx, userID, id)
	if err != nil {
		return storeErr("Failed to delete journal entry.", err)
	}
	if n == 0 {
		s.logger.Debug("journal delete matched no rows", zap.String("user_id", userID), zap.String("entry_id", id))
	}
	return nil
}

// --- promotions ---

func (s *TrainingService) ListPromotions(ctx context.Context, userID string) ([]models.Promotion, error) {
	promotions, err := s.store.ListPromotions(ctx, userID)
	if err != nil {
		return nil, storeErr("Failed to load promotions.", err)
	}
	return promotions, nil
}

// CreatePromotion records the promotion and moves the profile to the same
// rank in one transaction. If the profile update fails the promotion is
// rolled back too. Concurrent promotions for one user are last-writer-wins on
// the profile's rank.
func (s *TrainingService) CreatePromotion(ctx context.Context, userID string, in models.NewPromotion) (models.Promotion, error) {
	p, err := in.ToPromotion(userID)
	if err != nil {
		return models.Promotion{}, err
	}

	var created models.Promotion
	err = s.store.InTx(ctx, func(r *store.Repo) error {
		created, err = r.InsertPromotion(ctx, p)
		if err != nil {
			return storeErr("Failed to create promotion.", err)
		}
		updated, err := r.SetRank(ctx, userID, created.Belt, created.Stripes)
		if err != nil {
			return storeErr("Failed to update profile after promotion.", err)
		}
		if !updated {
			s.logger.Info("promotion recorded for user without profile", zap.String("user_id", userID))
		}
		return nil
	})
	if err != nil {
		return models.Promotion{}, s.txErr("Failed to create promotion.", err)
	}
	return created, nil
}

// --- dashboard ---

type Dashboard struct {
	Profile          *models.Profile       `json:"profile"`
	CurrentRankLabel string                `json:"currentRankLabel,omitempty"`
	BeltColor        string                `json:"beltColor,omitempty"`
	RecentEntries    []models.JournalEntry `json:"recentEntries"`
	TotalEntries     int                   `json:"totalEntries"`
	TrainingEntries  int                   `json:"trainingEntries"`
	TotalPromotions  int                   `json:"totalPromotions"`
	LatestPromotion  *models.Promotion     `json:"latestPromotion"`
}

// Dashboard gathers the overview shown on the home page. Users without a
// profile get an empty overview.
func (s *TrainingService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	const failed = "Failed to load dashboard."
	d := Dashboard{RecentEntries: []models.JournalEntry{}}

	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return Dashboard{}, storeErr(failed, err)
	}
	if p == nil {
		return d, nil
	}
	d.Profile = p
	d.CurrentRankLabel = belt.DisplayLabel(p.CurrentBelt, p.CurrentStripes)
	d.BeltColor = belt.DefinitionFor(p.CurrentBelt).Hex

	if d.RecentEntries, err = s.store.ListJournal(ctx, userID, recentEntriesLimit); err != nil {
		return Dashboard{}, storeErr(failed, err)
	}
	s.decryptAll(d.RecentEntries)
	counts, err := s.store.CountJournal(ctx, userID)
	if err != nil {
		return Dashboard{}, storeErr(failed, err)
	}
	d.TotalEntries, d.TrainingEntries = counts.Total, counts.Training

	if d.TotalPromotions, err = s.store.CountPromotions(ctx, userID); err != nil {
		return Dashboard{}, storeErr(failed, err)
	}
	if d.LatestPromotion, err = s.store.LatestPromotion(ctx, userID); err != nil {
		return Dashboard{}, storeErr(failed, err)
	}
	return d, nil
}

func (s *TrainingService) decryptAll(entries []models.JournalEntry) {
	for i := range entries {
		s.enc.DecryptJournal(&entries[i])
	}
}

// txErr passes through domain errors raised inside a transaction and wraps
// anything else (begin/commit failures) as a store failure.
func (s *TrainingService) txErr(message string, err error) error {
	var se *StoreError
	var ve *models.ValidationError
	if errors.As(err, &se) || errors.As(err, &ve) ||
		errors.Is(err, ErrProfileExists) || errors.Is(err, ErrProfileNotFound) {
		return err
	}
	return storeErr(message, err)
}
