package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/store"
	"github.com/greenleaf-nursery/nursery-api/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactFormValidate(t *testing.T) {
	valid := ContactForm{Name: "Ada", Email: "ada@example.com", Message: "Do you ship cacti?"}

	tests := []struct {
		name  string
		edit  func(f *ContactForm)
		field string
	}{
		{"valid", func(f *ContactForm) {}, ""},
		{"missing name", func(f *ContactForm) { f.Name = " " }, "name"},
		{"missing email", func(f *ContactForm) { f.Email = "" }, "email"},
		{"malformed email", func(f *ContactForm) { f.Email = "ada-at-example" }, "email"},
		{"missing message", func(f *ContactForm) { f.Message = "" }, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.edit(&form)
			err := form.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestMessageSubmitStoresUnread(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewMessageService(store.New(db), nil)

	message, err := svc.Submit(t.Context(), ContactForm{Name: " Ada ", Email: "ada@example.com", Message: "Hello"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, message.ID)
	assert.Equal(t, "Ada", message.Name)
	assert.False(t, message.IsRead)

	_, err = svc.Submit(t.Context(), ContactForm{Name: "Ada"})
	assert.Error(t, err)

	all, err := svc.List(t.Context(), MessagesAll)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMessageListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewMessageService(store.New(db), nil)
	oldest := testutil.CreateMessage(t, db, true, testutil.BaseTime)
	middle := testutil.CreateMessage(t, db, false, testutil.BaseTime.Add(time.Minute))
	newest := testutil.CreateMessage(t, db, false, testutil.BaseTime.Add(2*time.Minute))

	ids := func(ms []models.ContactMessage) []uuid.UUID {
		return lo.Map(ms, func(m models.ContactMessage, _ int) uuid.UUID { return m.ID })
	}

	tests := []struct {
		filter string
		want   []uuid.UUID
	}{
		{"", []uuid.UUID{newest.ID, middle.ID, oldest.ID}},
		{MessagesAll, []uuid.UUID{newest.ID, middle.ID, oldest.ID}},
		{MessagesUnread, []uuid.UUID{newest.ID, middle.ID}},
		{MessagesRead, []uuid.UUID{oldest.ID}},
	}
	for _, tt := range tests {
		t.Run("filter="+tt.filter, func(t *testing.T) {
			got, err := svc.List(t.Context(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	_, err := svc.List(t.Context(), "archived")
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestMessageOpenMarksRead(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := store.New(db)
	svc := NewMessageService(s, nil)
	msg := testutil.CreateMessage(t, db, false, testutil.BaseTime)

	opened, err := svc.Open(t.Context(), msg.ID)
	require.NoError(t, err)
	assert.True(t, opened.IsRead)

	stored, err := s.Messages().Get(t.Context(), msg.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)

	again, err := svc.Open(t.Context(), msg.ID)
	require.NoError(t, err)
	assert.True(t, again.IsRead)

	_, err = svc.Open(t.Context(), uuid.New())
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestMessageMarkReadAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewMessageService(store.New(db), nil)
	msg := testutil.CreateMessage(t, db, true, testutil.BaseTime)

	unread, err := svc.MarkRead(t.Context(), msg.ID, false)
	require.NoError(t, err)
	assert.False(t, unread.IsRead)

	_, err = svc.MarkRead(t.Context(), uuid.New(), true)
	assert.ErrorIs(t, err, ErrMessageNotFound)

	require.NoError(t, svc.Delete(t.Context(), msg.ID))
	assert.ErrorIs(t, svc.Delete(t.Context(), msg.ID), ErrMessageNotFound)
}
