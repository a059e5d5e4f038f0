package services

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/greenleaf-nursery/nursery-api/events"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	NotificationLoggedMessage = "Email notification logged successfully"
	NotificationNote          = "Email functionality requires SMTP configuration. This is a placeholder response."
)

// OrderEmail is the payload accepted by the order-email notification endpoint.
type OrderEmail struct {
	CustomerEmail string          `json:"customerEmail"`
	CustomerName  string          `json:"customerName"`
	PlantName     string          `json:"plantName"`
	Quantity      int             `json:"quantity"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

func (e OrderEmail) Validate() error {
	switch {
	case strings.TrimSpace(e.CustomerEmail) == "":
		return errors.New("customerEmail is required")
	case strings.TrimSpace(e.CustomerName) == "":
		return errors.New("customerName is required")
	case strings.TrimSpace(e.PlantName) == "":
		return errors.New("plantName is required")
	case e.Quantity <= 0:
		return errors.New("quantity must be positive")
	}
	return nil
}

// NotificationService stands in for an email sender. It only logs what it
// would have sent.
type NotificationService struct {
	logger  *log.Logger
	unit    currency.Unit
	printer *message.Printer
}

func NewNotificationService(unit currency.Unit, logger *log.Logger) *NotificationService {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &NotificationService{
		logger:  logger,
		unit:    unit,
		printer: message.NewPrinter(language.English),
	}
}

// FormatAmount renders amount in the store currency, e.g. "$ 25.00". The
// number of decimals follows the currency's standard rounding.
func (n *NotificationService) FormatAmount(amount decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(n.unit)
	return n.printer.Sprintf("%v %s", currency.Symbol(n.unit), amount.StringFixed(int32(scale)))
}

// LogOrderEmail records the confirmation email for one order line.
func (n *NotificationService) LogOrderEmail(ctx context.Context, email OrderEmail) error {
	if err := email.Validate(); err != nil {
		return err
	}
	n.logger.Printf("Order confirmation to %s <%s>: %d x %s, total %s",
		email.CustomerName, email.CustomerEmail, email.Quantity, email.PlantName, n.FormatAmount(email.TotalAmount))
	return nil
}

// HandleOrderPlaced logs one confirmation per line of a placed order.
func (n *NotificationService) HandleOrderPlaced(ctx context.Context, event events.OrderPlaced) error {
	var errs []error
	for _, item := range event.Items {
		errs = append(errs, n.LogOrderEmail(ctx, OrderEmail{
			CustomerEmail: event.CustomerEmail,
			CustomerName:  event.CustomerName,
			PlantName:     item.PlantName,
			Quantity:      item.Quantity,
			TotalAmount:   item.TotalAmount,
		}))
	}
	return errors.Join(errs...)
}
