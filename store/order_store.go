package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"gorm.io/gorm"
)

// OrderFilter has AND semantics across fields, OR semantics within each field slice
type OrderFilter struct {
	IDs       []uuid.UUID
	GroupIDs  []uuid.UUID
	Emails    []string
	Names     []string
	Statuses  []models.OrderStatus
	CreatedAt *TimeRange
	// LegacyOnly restricts the result to lines without an order group id.
	LegacyOnly bool
}

func (f OrderFilter) Validate() error {
	if f.CreatedAt != nil {
		if err := f.CreatedAt.Validate(); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
	}
	if f.LegacyOnly && len(f.GroupIDs) > 0 {
		return errors.New("LegacyOnly contradicts GroupIDs")
	}
	return nil
}

type OrderStore struct {
	db *gorm.DB
}

func (s *OrderStore) Create(ctx context.Context, line *models.OrderLine) error {
	if err := s.db.WithContext(ctx).Create(line).Error; err != nil {
		return fmt.Errorf("orders.Create: %w", err)
	}
	return nil
}

// List returns matching lines newest first. Ties on created_at are broken by id
// so repeated reads present the same order.
func (s *OrderStore) List(ctx context.Context, f OrderFilter) ([]models.OrderLine, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("orders.List: %w", err)
	}

	var lines []models.OrderLine
	if err := s.filtered(ctx, f).Order("created_at DESC").Order("id").Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("orders.List: %w", err)
	}
	return lines, nil
}

func (s *OrderStore) Get(ctx context.Context, id uuid.UUID) (*models.OrderLine, error) {
	var line models.OrderLine
	if err := s.db.WithContext(ctx).First(&line, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("orders.Get: %w", notFound(err))
	}
	return &line, nil
}

// SetStatus writes status to every listed line and reports how many rows changed.
func (s *OrderStore) SetStatus(ctx context.Context, status models.OrderStatus, ids ...uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.OrderLine{}).Where("id IN ?", ids).Update("status", status)
	if res.Error != nil {
		return 0, fmt.Errorf("orders.SetStatus: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *OrderStore) Delete(ctx context.Context, ids ...uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.OrderLine{})
	if res.Error != nil {
		return 0, fmt.Errorf("orders.Delete: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// AssignGroup stamps groupID onto lines that do not have one yet.
func (s *OrderStore) AssignGroup(ctx context.Context, groupID uuid.UUID, ids ...uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.OrderLine{}).
		Where("id IN ? AND order_group_id IS NULL", ids).
		UpdateColumn("order_group_id", groupID)
	if res.Error != nil {
		return 0, fmt.Errorf("orders.AssignGroup: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *OrderStore) Count(ctx context.Context, f OrderFilter) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("orders.Count: %w", err)
	}

	var count int64
	if err := s.filtered(ctx, f).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("orders.Count: %w", err)
	}
	return count, nil
}

func (s *OrderStore) filtered(ctx context.Context, f OrderFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.OrderLine{})

	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	if len(f.GroupIDs) > 0 {
		q = q.Where("order_group_id IN ?", f.GroupIDs)
	}
	if f.LegacyOnly {
		q = q.Where("order_group_id IS NULL")
	}
	if len(f.Emails) > 0 {
		q = q.Where("customer_email IN ?", f.Emails)
	}
	if len(f.Names) > 0 {
		q = q.Where("customer_name IN ?", f.Names)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.CreatedAt != nil {
		q = f.CreatedAt.apply(q, "created_at")
	}
	return q
}
