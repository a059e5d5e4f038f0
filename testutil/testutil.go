package testutil

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// BaseTime is a fixed instant aligned to a 60s boundary that fixtures are
// created relative to.
var BaseTime = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// SafetyCheck is the TestMain guard shared by every package. It returns a
// non-zero exit code when GO_ENV is not "test".
func SafetyCheck() int {
	env := os.Getenv("GO_ENV")
	if env == "test" {
		return 0
	}

	fmt.Fprintf(os.Stderr, "\n"+
		"╔════════════════════════════════════════════════════════════════╗\n"+
		"║                    SAFETY CHECK FAILED                         ║\n"+
		"║                                                                ║\n"+
		"║  Tests must run with GO_ENV=test to prevent data loss!        ║\n"+
		"║                                                                ║\n"+
		"║  Current GO_ENV: %-45s ║\n"+
		"║                                                                ║\n"+
		"║  To run tests safely:                                          ║\n"+
		"║    make test                                                   ║\n"+
		"║    GO_ENV=test go test ./...                                   ║\n"+
		"╚════════════════════════════════════════════════════════════════╝\n\n",
		fmt.Sprintf("%q", env))
	return 1
}

// NewTestDB opens a migrated in-memory SQLite database. The pool is limited
// to one connection because every new connection would see an empty database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// PlantOption customises a fixture plant.
type PlantOption func(p *models.Plant)

func WithStock(stock int) PlantOption {
	return func(p *models.Plant) { p.Stock = stock }
}

func WithPrice(price string) PlantOption {
	return func(p *models.Plant) { p.Price = decimal.RequireFromString(price) }
}

func WithCategory(category string) PlantOption {
	return func(p *models.Plant) { p.Category = category }
}

func WithName(name string) PlantOption {
	return func(p *models.Plant) { p.Name = name }
}

func Featured() PlantOption {
	return func(p *models.Plant) { p.IsFeatured = true }
}

func CreatedAt(at time.Time) PlantOption {
	return func(p *models.Plant) { p.CreatedAt = at }
}

// CreatePlant inserts a plant with random descriptive fields.
func CreatePlant(t *testing.T, db *gorm.DB, opts ...PlantOption) models.Plant {
	t.Helper()

	plant := models.Plant{
		Name:        gofakeit.Noun() + " " + gofakeit.Adjective(),
		Description: "Nursery stock " + gofakeit.UUID(),
		CareInfo:    gofakeit.Sentence(6),
		Price:       decimal.NewFromFloat(gofakeit.Price(5, 80)).Round(2),
		Category:    "Indoor",
		Stock:       10,
	}
	for _, opt := range opts {
		opt(&plant)
	}

	if err := db.Create(&plant).Error; err != nil {
		t.Fatalf("Failed to create plant: %v", err)
	}
	return plant
}

// Customer identifies the buyer on fixture lines.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// FakeCustomer returns a random customer.
func FakeCustomer() Customer {
	return Customer{
		Name:    gofakeit.Name(),
		Email:   gofakeit.Email(),
		Phone:   gofakeit.Phone(),
		Address: gofakeit.Street() + ", " + gofakeit.City(),
	}
}

// CreateOrderLine inserts a line for customer at createdAt. A nil groupID
// produces a legacy line.
func CreateOrderLine(t *testing.T, db *gorm.DB, c Customer, plant models.Plant, quantity int, createdAt time.Time, groupID *uuid.UUID) models.OrderLine {
	t.Helper()

	line := models.OrderLine{
		OrderGroupID:    groupID,
		CustomerName:    c.Name,
		CustomerEmail:   c.Email,
		CustomerPhone:   c.Phone,
		ShippingAddress: c.Address,
		PlantID:         plant.ID,
		PlantName:       plant.Name,
		PlantPrice:      plant.Price,
		Quantity:        quantity,
		TotalAmount:     models.LineTotal(plant.Price, quantity),
		Status:          models.OrderStatusPending,
		CreatedAt:       createdAt.UTC(),
		UpdatedAt:       createdAt.UTC(),
	}

	if err := db.Create(&line).Error; err != nil {
		t.Fatalf("Failed to create order line: %v", err)
	}
	return line
}

// CreateMessage inserts a contact message at createdAt.
func CreateMessage(t *testing.T, db *gorm.DB, read bool, createdAt time.Time) models.ContactMessage {
	t.Helper()

	message := models.ContactMessage{
		Name:      gofakeit.Name(),
		Email:     gofakeit.Email(),
		Message:   gofakeit.Sentence(12),
		IsRead:    read,
		CreatedAt: createdAt.UTC(),
	}
	if err := db.Create(&message).Error; err != nil {
		t.Fatalf("Failed to create message: %v", err)
	}
	return message
}

// NewFileHeader builds a multipart.FileHeader the way a handler would
// receive it from a form upload.
func NewFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	if err != nil {
		t.Fatalf("Failed to read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	if len(files) == 0 {
		t.Fatalf("Form has no file part")
	}
	return files[0]
}
