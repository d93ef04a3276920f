package deck

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service validates and stores decks.
type Service struct {
	validator *Validator
	repo      Repository
	logger    *zap.Logger
}

// NewService creates a deck service.
func NewService(validator *Validator, repo Repository, logger *zap.Logger) *Service {
	return &Service{validator: validator, repo: repo, logger: logger}
}

// Register validates and stores the account's deck.
func (s *Service) Register(ctx context.Context, accountID int64, cards []int) error {
	if err := s.validator.Validate(cards); err != nil {
		s.logger.Debug("deck rejected", zap.Int64("account_id", accountID), zap.Error(err))
		return err
	}
	if err := s.repo.SaveDeck(ctx, accountID, cards); err != nil {
		return fmt.Errorf("save deck: %w", err)
	}
	s.logger.Info("deck registered", zap.Int64("account_id", accountID), zap.Int("cards", len(cards)))
	return nil
}

// ActiveDeck returns the account's registered deck.
func (s *Service) ActiveDeck(ctx context.Context, accountID int64) ([]int, error) {
	cards, err := s.repo.LoadDeck(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}
	return cards, nil
}
