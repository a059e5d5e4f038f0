package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/store"
	"github.com/shopspring/decimal"
)

// PlantInput carries admin edits. Nil fields are left unchanged on update.
type PlantInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	CareInfo    *string          `json:"care_info"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Stock       *int             `json:"stock"`
	IsFeatured  *bool            `json:"is_featured"`
}

func (in PlantInput) validate(creating bool) error {
	if creating {
		if in.Name == nil {
			return &ValidationError{Field: "name", Message: "is required"}
		}
		if in.Price == nil {
			return &ValidationError{Field: "price", Message: "is required"}
		}
		if in.Category == nil {
			return &ValidationError{Field: "category", Message: "is required"}
		}
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be blank"}
	}
	if in.Category != nil && strings.TrimSpace(*in.Category) == "" {
		return &ValidationError{Field: "category", Message: "must not be blank"}
	}
	if in.Price != nil && in.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "must not be negative"}
	}
	if in.Stock != nil && *in.Stock < 0 {
		return &ValidationError{Field: "stock", Message: "must not be negative"}
	}
	return nil
}

func (in PlantInput) updates() map[string]any {
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.CareInfo != nil {
		updates["care_info"] = *in.CareInfo
	}
	if in.Price != nil {
		updates["price"] = in.Price.Round(2)
	}
	if in.Category != nil {
		updates["category"] = strings.TrimSpace(*in.Category)
	}
	if in.Stock != nil {
		updates["stock"] = *in.Stock
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	return updates
}

// CatalogService owns plant browsing and admin plant management.
type CatalogService struct {
	store  *store.Store
	images ImageService
	logger *log.Logger
}

// NewCatalogService builds the service. images may be nil, in which case
// image keys are returned without URLs and uploads are refused.
func NewCatalogService(s *store.Store, images ImageService, logger *log.Logger) *CatalogService {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CatalogService{store: s, images: images, logger: logger}
}

func (s *CatalogService) List(ctx context.Context, filter store.PlantFilter) ([]models.Plant, error) {
	plants, err := s.store.Plants().List(ctx, filter)
	if err != nil {
		s.logger.Printf("list plants: %v", err)
		return nil, err
	}
	for i := range plants {
		s.attachURL(ctx, &plants[i])
	}
	return plants, nil
}

// Featured returns up to limit featured plants for the home page.
func (s *CatalogService) Featured(ctx context.Context, limit int) ([]models.Plant, error) {
	featured := true
	return s.List(ctx, store.PlantFilter{Featured: &featured, Limit: limit})
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Plant, error) {
	plant, err := s.store.Plants().Get(ctx, id)
	if err != nil {
		return nil, s.mapErr("get plant", id, err)
	}
	s.attachURL(ctx, plant)
	return plant, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.store.Plants().Categories(ctx)
	if err != nil {
		s.logger.Printf("list categories: %v", err)
		return nil, err
	}
	return categories, nil
}

func (s *CatalogService) Create(ctx context.Context, in PlantInput) (*models.Plant, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}

	plant := &models.Plant{
		Name:     strings.TrimSpace(*in.Name),
		Price:    in.Price.Round(2),
		Category: strings.TrimSpace(*in.Category),
	}
	if in.Description != nil {
		plant.Description = *in.Description
	}
	if in.CareInfo != nil {
		plant.CareInfo = *in.CareInfo
	}
	if in.Stock != nil {
		plant.Stock = *in.Stock
	}
	if in.IsFeatured != nil {
		plant.IsFeatured = *in.IsFeatured
	}

	if err := s.store.Plants().Create(ctx, plant); err != nil {
		s.logger.Printf("create plant %q: %v", plant.Name, err)
		return nil, err
	}
	return plant, nil
}

func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, in PlantInput) (*models.Plant, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}

	updates := in.updates()
	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		if err := s.store.Plants().Update(ctx, id, updates); err != nil {
			return nil, s.mapErr("update plant", id, err)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes the plant and its photo. Existing order lines keep their
// name and price snapshot.
func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	plant, err := s.store.Plants().Get(ctx, id)
	if err != nil {
		return s.mapErr("delete plant", id, err)
	}
	if err := s.store.Plants().Delete(ctx, id); err != nil {
		return s.mapErr("delete plant", id, err)
	}

	if plant.ImageKey != nil && s.images != nil {
		if err := s.images.DeleteImage(ctx, *plant.ImageKey); err != nil {
			s.logger.Printf("delete image for plant %s: %v", id, err)
		}
	}
	return nil
}

// AttachImage uploads a new photo for the plant and replaces the previous one.
func (s *CatalogService) AttachImage(ctx context.Context, id uuid.UUID, fileHeader *multipart.FileHeader) (*models.Plant, error) {
	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}

	plant, err := s.store.Plants().Get(ctx, id)
	if err != nil {
		return nil, s.mapErr("attach image", id, err)
	}

	key, err := s.images.UploadImage(ctx, id, fileHeader)
	if err != nil {
		return nil, err
	}

	if err := s.store.Plants().Update(ctx, id, map[string]any{"image_key": key, "updated_at": time.Now().UTC()}); err != nil {
		return nil, s.mapErr("attach image", id, err)
	}

	if plant.ImageKey != nil && *plant.ImageKey != key {
		if err := s.images.DeleteImage(ctx, *plant.ImageKey); err != nil {
			s.logger.Printf("delete previous image for plant %s: %v", id, err)
		}
	}
	return s.Get(ctx, id)
}

func (s *CatalogService) attachURL(ctx context.Context, plant *models.Plant) {
	if plant.ImageKey == nil || s.images == nil {
		return
	}
	url, err := s.images.GetImageURL(ctx, *plant.ImageKey)
	if err != nil {
		s.logger.Printf("image url for plant %s: %v", plant.ID, err)
		return
	}
	plant.ImageURL = &url
}

func (s *CatalogService) mapErr(op string, id uuid.UUID, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrPlantNotFound
	}
	s.logger.Printf("%s %s: %v", op, id, err)
	return fmt.Errorf("%s: %w", op, err)
}
