package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrQuoteNotFound = errors.New("quote not found")
	// ErrQuoteStateConflict is returned by the conditional updates when the
	// quote exists but is no longer in the expected prior state.
	ErrQuoteStateConflict = errors.New("quote not in expected state")
)

// QuoteStore is the durable record store for quote lifecycle state. Every
// mutation is committed before the call returns. The conditional updates
// (Transition, MarkChannelOpened) are single UPDATE statements guarded by
// the expected prior state, so concurrent callers racing on the same quote
// observe at most one winner.
type QuoteStore struct {
	db *gorm.DB
}

func NewQuoteStore(db *gorm.DB) *QuoteStore {
	return &QuoteStore{db: db}
}

// Put upserts the quote, overwriting any existing record with the same id.
func (s *QuoteStore) Put(quote *Quote) error {
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(quote)

	if result.Error != nil {
		return fmt.Errorf("failed to put quote %s: %w", quote.ID, result.Error)
	}
	return nil
}

func (s *QuoteStore) Get(id string) (*Quote, error) {
	var quote Quote
	// Find instead of First to avoid gorm's "record not found" log noise
	result := s.db.Where("id = ?", id).Find(&quote)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get quote %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrQuoteNotFound
	}
	return &quote, nil
}

// SetState unconditionally updates the state of an existing quote and
// returns the updated record.
func (s *QuoteStore) SetState(id string, state string) (*Quote, error) {
	result := s.db.Model(&Quote{}).Where("id = ?", id).Update("state", state)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to set state of quote %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrQuoteNotFound
	}
	return s.Get(id)
}

// Transition moves the quote from one state to another only if it is still
// in the expected prior state. Returns ErrQuoteStateConflict if another
// caller got there first.
func (s *QuoteStore) Transition(id string, from string, to string) (*Quote, error) {
	result := s.db.Model(&Quote{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to transition quote %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.Get(id); err != nil {
			return nil, err
		}
		return nil, ErrQuoteStateConflict
	}
	return s.Get(id)
}

// MarkChannelOpened records the channel-open handle and finalizes the quote,
// guarded by the ChannelPending state.
func (s *QuoteStore) MarkChannelOpened(id string, channelId string) (*Quote, error) {
	result := s.db.Model(&Quote{}).
		Where("id = ? AND state = ?", id, QUOTE_STATE_CHANNEL_PENDING).
		Updates(map[string]interface{}{
			"state":      QUOTE_STATE_CHANNEL_OPEN,
			"channel_id": channelId,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark quote %s channel opened: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.Get(id); err != nil {
			return nil, err
		}
		return nil, ErrQuoteStateConflict
	}
	return s.Get(id)
}

func (s *QuoteStore) ListByState(state string) ([]Quote, error) {
	var quotes []Quote
	result := s.db.Where("state = ?", state).Order("created_at asc").Find(&quotes)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list quotes by state %s: %w", state, result.Error)
	}
	return quotes, nil
}
