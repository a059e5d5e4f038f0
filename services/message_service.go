package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/store"
)

// MessageFilter values accepted by List.
const (
	MessagesAll    = "all"
	MessagesUnread = "unread"
	MessagesRead   = "read"
)

// ContactForm is the public contact submission.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (f ContactForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if strings.TrimSpace(f.Email) == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if strings.TrimSpace(f.Message) == "" {
		return &ValidationError{Field: "message", Message: "is required"}
	}
	return nil
}

type MessageService struct {
	store  *store.Store
	logger *log.Logger
}

func NewMessageService(s *store.Store, logger *log.Logger) *MessageService {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &MessageService{store: s, logger: logger}
}

// Submit stores a contact message as unread.
func (s *MessageService) Submit(ctx context.Context, form ContactForm) (*models.ContactMessage, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	message := &models.ContactMessage{
		Name:    strings.TrimSpace(form.Name),
		Email:   strings.TrimSpace(form.Email),
		Message: strings.TrimSpace(form.Message),
	}
	if err := s.store.Messages().Create(ctx, message); err != nil {
		s.logger.Printf("save contact message from %s: %v", message.Email, err)
		return nil, fmt.Errorf("messages.Submit: %w", err)
	}
	return message, nil
}

// List returns messages newest first. filter is one of all, unread or read;
// an empty filter means all.
func (s *MessageService) List(ctx context.Context, filter string) ([]models.ContactMessage, error) {
	var f store.MessageFilter
	switch filter {
	case "", MessagesAll:
	case MessagesUnread:
		read := false
		f.IsRead = &read
	case MessagesRead:
		read := true
		f.IsRead = &read
	default:
		return nil, &ValidationError{Field: "filter", Message: "must be one of all, unread, read"}
	}

	messages, err := s.store.Messages().List(ctx, f)
	if err != nil {
		s.logger.Printf("list messages: %v", err)
		return nil, fmt.Errorf("messages.List: %w", err)
	}
	return messages, nil
}

// Open returns the message and marks it read.
func (s *MessageService) Open(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	message, err := s.store.Messages().Get(ctx, id)
	if err != nil {
		return nil, s.fail("open message", id, err)
	}
	if message.IsRead {
		return message, nil
	}

	if err := s.store.Messages().SetRead(ctx, id, true); err != nil {
		return nil, s.fail("open message", id, err)
	}
	message.IsRead = true
	return message, nil
}

func (s *MessageService) MarkRead(ctx context.Context, id uuid.UUID, read bool) (*models.ContactMessage, error) {
	if err := s.store.Messages().SetRead(ctx, id, read); err != nil {
		return nil, s.fail("mark message read", id, err)
	}

	message, err := s.store.Messages().Get(ctx, id)
	if err != nil {
		return nil, s.fail("mark message read", id, err)
	}
	return message, nil
}

func (s *MessageService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Messages().Delete(ctx, id); err != nil {
		return s.fail("delete message", id, err)
	}
	return nil
}

func (s *MessageService) fail(op string, id uuid.UUID, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrMessageNotFound
	}
	s.logger.Printf("%s %s: %v", op, id, err)
	return fmt.Errorf("%s: %w", op, err)
}
