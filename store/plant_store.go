package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"gorm.io/gorm"
)

// PlantFilter has AND semantics across fields. Zero values match everything.
type PlantFilter struct {
	IDs      []uuid.UUID
	Category string
	Featured *bool
	// Search is a case-insensitive substring of name or description.
	Search string
	Limit  int
}

type PlantStore struct {
	db *gorm.DB
}

// List returns matching plants, newest first.
func (s *PlantStore) List(ctx context.Context, f PlantFilter) ([]models.Plant, error) {
	q := s.db.WithContext(ctx).Model(&models.Plant{})

	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Featured != nil {
		q = q.Where("is_featured = ?", *f.Featured)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var plants []models.Plant
	if err := q.Order("created_at DESC").Order("id").Find(&plants).Error; err != nil {
		return nil, fmt.Errorf("plants.List: %w", err)
	}
	return plants, nil
}

func (s *PlantStore) Get(ctx context.Context, id uuid.UUID) (*models.Plant, error) {
	var plant models.Plant
	if err := s.db.WithContext(ctx).First(&plant, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("plants.Get: %w", notFound(err))
	}
	return &plant, nil
}

func (s *PlantStore) Create(ctx context.Context, plant *models.Plant) error {
	if err := s.db.WithContext(ctx).Create(plant).Error; err != nil {
		return fmt.Errorf("plants.Create: %w", err)
	}
	return nil
}

// Update applies a partial update keyed by column name.
func (s *PlantStore) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.Plant{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("plants.Update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("plants.Update: %w", ErrNotFound)
	}
	return nil
}

func (s *PlantStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Plant{})
	if res.Error != nil {
		return fmt.Errorf("plants.Delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("plants.Delete: %w", ErrNotFound)
	}
	return nil
}

// Categories returns the distinct categories in alphabetical order.
func (s *PlantStore) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).Model(&models.Plant{}).
		Distinct("category").Order("category").Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("plants.Categories: %w", err)
	}
	return categories, nil
}

// DecrementStock removes quantity units only if at least that many remain.
// It returns ErrInsufficientStock when the row exists but has too little
// stock and ErrNotFound when it does not exist.
func (s *PlantStore) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	res := s.db.WithContext(ctx).Model(&models.Plant{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("plants.DecrementStock: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Plant{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("plants.DecrementStock: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("plants.DecrementStock: %w", ErrNotFound)
	}
	return fmt.Errorf("plants.DecrementStock: %w", ErrInsufficientStock)
}

// CountLowStock counts plants whose stock is strictly below threshold.
func (s *PlantStore) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Plant{}).Where("stock < ?", threshold).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("plants.CountLowStock: %w", err)
	}
	return count, nil
}
