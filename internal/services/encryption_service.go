package services

import (
	"go.uber.org/zap"

	"matlog/internal/crypto"
	"matlog/internal/models"
)

// EncryptionService seals the rich-text fields of journal entries at rest.
// A nil *EncryptionService is valid and leaves entries untouched.
type EncryptionService struct {
	sealer *crypto.Sealer
	logger *zap.Logger
}

// NewEncryptionService returns nil when secret is empty.
func NewEncryptionService(secret string, logger *zap.Logger) (*EncryptionService, error) {
	if secret == "" {
		return nil, nil
	}
	sealer, err := crypto.NewSealer([]byte(secret))
	if err != nil {
		return nil, err
	}
	return &EncryptionService{sealer: sealer, logger: logger}, nil
}

func (s *EncryptionService) journalFields(e *models.JournalEntry) []*string {
	return []*string{&e.Description, &e.HighlightMoves, &e.WhatWentRight, &e.WhatToImprove}
}

// EncryptJournal encrypts sensitive journal fields before storing in DB
func (s *EncryptionService) EncryptJournal(e *models.JournalEntry) error {
	if s == nil {
		return nil
	}
	for _, f := range s.journalFields(e) {
		sealed, err := s.sealer.Seal(*f)
		if err != nil {
			return err
		}
		*f = sealed
	}
	return nil
}

// DecryptJournal decrypts sensitive journal fields after retrieving from DB.
// A field that cannot be opened is returned as stored and logged, so one bad
// row does not fail every read of the journal.
func (s *EncryptionService) DecryptJournal(e *models.JournalEntry) {
	if s == nil {
		return
	}
	for _, f := range s.journalFields(e) {
		opened, err := s.sealer.Open(*f)
		if err != nil {
			s.logger.Warn("journal field not decryptable; returning stored value",
				zap.String("entry_id", e.ID), zap.Error(err))
			continue
		}
		*f = opened
	}
}
