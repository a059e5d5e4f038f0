// Package seed fills a database with a demo catalog and order history.
package seed

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/store"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var categories = []string{"Indoor", "Outdoor", "Succulents", "Herbs", "Trees"}

// Config controls how much demo data Apply inserts.
type Config struct {
	Plants int
	Orders int
	// LegacyOrders are written without an order group id, the way rows
	// looked before checkout started assigning one.
	LegacyOrders int
	Messages     int
	// Seed fixes the faker seed. Zero picks a random one.
	Seed uint64
	// Now anchors order timestamps. Zero means time.Now.
	Now time.Time
}

// Result counts what Apply inserted.
type Result struct {
	Plants     int
	OrderLines int
	Messages   int
}

// Apply inserts cfg's demo data in one transaction.
func Apply(ctx context.Context, s *store.Store, cfg Config, logger *log.Logger) (Result, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.Plants <= 0 && (cfg.Orders > 0 || cfg.LegacyOrders > 0) {
		return Result{}, fmt.Errorf("seed: orders need at least one plant")
	}

	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	faker := gofakeit.New(cfg.Seed)

	var result Result
	err := s.Transaction(ctx, func(tx *store.Store) error {
		plants := make([]models.Plant, 0, cfg.Plants)
		for i := 0; i < cfg.Plants; i++ {
			plant := fakePlant(faker, now.Add(-time.Duration(cfg.Plants-i)*time.Hour))
			if err := tx.Plants().Create(ctx, &plant); err != nil {
				return fmt.Errorf("plant %d: %w", i, err)
			}
			plants = append(plants, plant)
		}
		result.Plants = len(plants)

		for i := 0; i < cfg.Orders+cfg.LegacyOrders; i++ {
			var groupID *uuid.UUID
			if i < cfg.Orders {
				groupID = lo.ToPtr(uuid.New())
			}
			placedAt := now.Add(-time.Duration(faker.IntRange(1, 60*24*30)) * time.Minute).UTC()

			lines := fakeOrder(faker, plants, groupID, placedAt)
			for j := range lines {
				if err := tx.Orders().Create(ctx, &lines[j]); err != nil {
					return fmt.Errorf("order %d line %d: %w", i, j, err)
				}
			}
			result.OrderLines += len(lines)
		}

		for i := 0; i < cfg.Messages; i++ {
			message := &models.ContactMessage{
				Name:      faker.Name(),
				Email:     faker.Email(),
				Message:   faker.Sentence(14),
				IsRead:    faker.Bool(),
				CreatedAt: now.Add(-time.Duration(faker.IntRange(1, 60*24*14)) * time.Minute).UTC(),
			}
			if err := tx.Messages().Create(ctx, message); err != nil {
				return fmt.Errorf("message %d: %w", i, err)
			}
		}
		result.Messages = cfg.Messages
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("seed: %w", err)
	}

	logger.Printf("seeded %d plant(s), %d order line(s), %d message(s)", result.Plants, result.OrderLines, result.Messages)
	return result, nil
}

func fakePlant(faker *gofakeit.Faker, createdAt time.Time) models.Plant {
	return models.Plant{
		Name:        faker.AdjectiveDescriptive() + " " + faker.NounConcrete(),
		Description: faker.Sentence(10),
		CareInfo:    faker.Sentence(8),
		Price:       decimal.NewFromFloat(faker.Price(4, 120)).Round(2),
		Category:    faker.RandomString(categories),
		Stock:       faker.IntRange(0, 40),
		IsFeatured:  faker.Float64() < 0.2,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   createdAt.UTC(),
	}
}

// fakeOrder builds one to three lines for a single customer. Seeded orders
// bypass checkout, so catalog stock is not decremented.
func fakeOrder(faker *gofakeit.Faker, plants []models.Plant, groupID *uuid.UUID, placedAt time.Time) []models.OrderLine {
	name := faker.Name()
	email := faker.Email()
	phone := faker.Phone()
	address := faker.Street() + ", " + faker.City()
	status := faker.RandomString(lo.Map(models.OrderStatuses(), func(s models.OrderStatus, _ int) string { return string(s) }))

	count := min(faker.IntRange(1, 3), len(plants))
	first := faker.IntRange(0, len(plants)-1)

	lines := make([]models.OrderLine, 0, count)
	for i := 0; i < count; i++ {
		plant := plants[(first+i)%len(plants)]
		quantity := faker.IntRange(1, 4)
		lines = append(lines, models.OrderLine{
			OrderGroupID:    groupID,
			CustomerName:    name,
			CustomerEmail:   email,
			CustomerPhone:   phone,
			ShippingAddress: address,
			PlantID:         plant.ID,
			PlantName:       plant.Name,
			PlantPrice:      plant.Price,
			Quantity:        quantity,
			TotalAmount:     models.LineTotal(plant.Price, quantity),
			Status:          models.OrderStatus(status),
			CreatedAt:       placedAt,
			UpdatedAt:       placedAt,
		})
	}
	return lines
}
