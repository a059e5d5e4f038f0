package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"gorm.io/gorm"
)

// MessageFilter selects by read flag; nil matches both.
type MessageFilter struct {
	IsRead *bool
}

type MessageStore struct {
	db *gorm.DB
}

// List returns contact messages newest first.
func (s *MessageStore) List(ctx context.Context, f MessageFilter) ([]models.ContactMessage, error) {
	q := s.db.WithContext(ctx).Model(&models.ContactMessage{})
	if f.IsRead != nil {
		q = q.Where("is_read = ?", *f.IsRead)
	}

	var messages []models.ContactMessage
	if err := q.Order("created_at DESC").Order("id").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("messages.List: %w", err)
	}
	return messages, nil
}

func (s *MessageStore) Get(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	var message models.ContactMessage
	if err := s.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("messages.Get: %w", notFound(err))
	}
	return &message, nil
}

func (s *MessageStore) Create(ctx context.Context, message *models.ContactMessage) error {
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("messages.Create: %w", err)
	}
	return nil
}

// SetRead updates the read flag of one message.
func (s *MessageStore) SetRead(ctx context.Context, id uuid.UUID, read bool) error {
	res := s.db.WithContext(ctx).Model(&models.ContactMessage{}).Where("id = ?", id).Update("is_read", read)
	if res.Error != nil {
		return fmt.Errorf("messages.SetRead: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero rows when the flag already had this value.
		if _, err := s.Get(ctx, id); err != nil {
			return fmt.Errorf("messages.SetRead: %w", err)
		}
	}
	return nil
}

func (s *MessageStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ContactMessage{})
	if res.Error != nil {
		return fmt.Errorf("messages.Delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("messages.Delete: %w", ErrNotFound)
	}
	return nil
}

func (s *MessageStore) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ContactMessage{}).Where("is_read = ?", false).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("messages.CountUnread: %w", err)
	}
	return count, nil
}
