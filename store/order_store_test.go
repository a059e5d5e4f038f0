package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/store"
	"github.com/greenleaf-nursery/nursery-api/testutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type orderStoreSuite struct {
	suite.Suite

	db    *gorm.DB
	store *store.Store
	plant models.Plant
}

// entry point to run the tests in the suite
func TestOrderStoreSuite(t *testing.T) {
	suite.Run(t, new(orderStoreSuite))
}

// before each test
func (suite *orderStoreSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	suite.store = store.New(suite.db)
	suite.plant = testutil.CreatePlant(suite.T(), suite.db, testutil.WithPrice("10.00"))
}

func (suite *orderStoreSuite) TestListNewestFirst() {
	c := testutil.FakeCustomer()
	older := testutil.CreateOrderLine(suite.T(), suite.db, c, suite.plant, 1, testutil.BaseTime, nil)
	newer := testutil.CreateOrderLine(suite.T(), suite.db, c, suite.plant, 2, testutil.BaseTime.Add(time.Hour), nil)

	lines, err := suite.store.Orders().List(suite.T().Context(), store.OrderFilter{})
	suite.Require().NoError(err)
	suite.Require().Len(lines, 2)
	suite.Equal(newer.ID, lines[0].ID)
	suite.Equal(older.ID, lines[1].ID)
	suite.True(decimal.RequireFromString("20").Equal(lines[0].TotalAmount), lines[0].TotalAmount.String())
}

func (suite *orderStoreSuite) TestListFilters() {
	ctx := suite.T().Context()
	alice := testutil.FakeCustomer()
	bob := testutil.FakeCustomer()
	group := uuid.New()

	legacy := testutil.CreateOrderLine(suite.T(), suite.db, alice, suite.plant, 1, testutil.BaseTime, nil)
	grouped := testutil.CreateOrderLine(suite.T(), suite.db, alice, suite.plant, 1, testutil.BaseTime.Add(30*time.Second), &group)
	other := testutil.CreateOrderLine(suite.T(), suite.db, bob, suite.plant, 1, testutil.BaseTime.Add(10*time.Second), nil)
	late := testutil.CreateOrderLine(suite.T(), suite.db, alice, suite.plant, 1, testutil.BaseTime.Add(5*time.Minute), nil)

	_, err := suite.store.Orders().SetStatus(ctx, models.OrderStatusDelivered, late.ID)
	suite.Require().NoError(err)

	window := store.Around(testutil.BaseTime, time.Minute)

	tests := []struct {
		name   string
		filter store.OrderFilter
		want   []uuid.UUID
	}{
		{
			name:   "by ids",
			filter: store.OrderFilter{IDs: []uuid.UUID{legacy.ID, other.ID}},
			want:   []uuid.UUID{other.ID, legacy.ID},
		},
		{
			name:   "by group",
			filter: store.OrderFilter{GroupIDs: []uuid.UUID{group}},
			want:   []uuid.UUID{grouped.ID},
		},
		{
			name:   "customer within window",
			filter: store.OrderFilter{Emails: []string{alice.Email}, Names: []string{alice.Name}, CreatedAt: &window},
			want:   []uuid.UUID{grouped.ID, legacy.ID},
		},
		{
			name:   "customer within window, legacy only",
			filter: store.OrderFilter{Emails: []string{alice.Email}, Names: []string{alice.Name}, CreatedAt: &window, LegacyOnly: true},
			want:   []uuid.UUID{legacy.ID},
		},
		{
			name:   "by status",
			filter: store.OrderFilter{Statuses: []models.OrderStatus{models.OrderStatusDelivered}},
			want:   []uuid.UUID{late.ID},
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			lines, err := suite.store.Orders().List(ctx, tt.filter)
			suite.Require().NoError(err)
			suite.Equal(tt.want, lo.Map(lines, func(l models.OrderLine, _ int) uuid.UUID { return l.ID }))

			count, err := suite.store.Orders().Count(ctx, tt.filter)
			suite.Require().NoError(err)
			suite.Equal(int64(len(tt.want)), count)
		})
	}
}

func (suite *orderStoreSuite) TestWindowBoundsAreInclusive() {
	ctx := suite.T().Context()
	c := testutil.FakeCustomer()
	seed := testutil.CreateOrderLine(suite.T(), suite.db, c, suite.plant, 1, testutil.BaseTime, nil)
	edge := testutil.CreateOrderLine(suite.T(), suite.db, c, suite.plant, 1, testutil.BaseTime.Add(time.Minute), nil)
	testutil.CreateOrderLine(suite.T(), suite.db, c, suite.plant, 1, testutil.BaseTime.Add(time.Minute+time.Millisecond), nil)

	window := store.Around(seed.CreatedAt, time.Minute)
	lines, err := suite.store.Orders().List(ctx, store.OrderFilter{Emails: []string{c.Email}, CreatedAt: &window})
	suite.Require().NoError(err)
	suite.Equal([]uuid.UUID{edge.ID, seed.ID}, lo.Map(lines, func(l models.OrderLine, _ int) uuid.UUID { return l.ID }))
}

func (suite *orderStoreSuite) TestInvalidFilter() {
	after := testutil.BaseTime
	before := after.Add(-time.Hour)

	_, err := suite.store.Orders().List(suite.T().Context(), store.OrderFilter{CreatedAt: &store.TimeRange{Before: &before, After: &after}})
	suite.Error(err)

	_, err = suite.store.Orders().List(suite.T().Context(), store.OrderFilter{LegacyOnly: true, GroupIDs: []uuid.UUID{uuid.New()}})
	suite.Error(err)
}

func (suite *orderStoreSuite) TestSetStatusAndDelete() {
	ctx := suite.T().Context()
	c := testutil.FakeCustomer()
	a := testutil.CreateOrderLine(suite.T(), suite.db, c, suite.plant, 1, testutil.BaseTime, nil)
	b := testutil.CreateOrderLine(suite.T(), suite.db, c, suite.plant, 1, testutil.BaseTime, nil)

	n, err := suite.store.Orders().SetStatus(ctx, models.OrderStatusConfirmed, a.ID, b.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(2), n)

	got, err := suite.store.Orders().Get(ctx, a.ID)
	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusConfirmed, got.Status)

	n, err = suite.store.Orders().SetStatus(ctx, models.OrderStatusConfirmed)
	suite.Require().NoError(err)
	suite.Zero(n)

	n, err = suite.store.Orders().Delete(ctx, a.ID, b.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(2), n)

	_, err = suite.store.Orders().Get(ctx, a.ID)
	suite.True(errors.Is(err, store.ErrNotFound))
}

func (suite *orderStoreSuite) TestAssignGroupSkipsGroupedLines() {
	ctx := suite.T().Context()
	c := testutil.FakeCustomer()
	existing := uuid.New()
	legacy := testutil.CreateOrderLine(suite.T(), suite.db, c, suite.plant, 1, testutil.BaseTime, nil)
	grouped := testutil.CreateOrderLine(suite.T(), suite.db, c, suite.plant, 1, testutil.BaseTime, &existing)

	group := uuid.New()
	n, err := suite.store.Orders().AssignGroup(ctx, group, legacy.ID, grouped.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(1), n)

	got, err := suite.store.Orders().Get(ctx, grouped.ID)
	suite.Require().NoError(err)
	suite.Equal(existing, *got.OrderGroupID)

	got, err = suite.store.Orders().Get(ctx, legacy.ID)
	suite.Require().NoError(err)
	suite.Equal(group, *got.OrderGroupID)
}

func (suite *orderStoreSuite) TestTransactionRollsBack() {
	ctx := suite.T().Context()
	c := testutil.FakeCustomer()
	line := testutil.CreateOrderLine(suite.T(), suite.db, c, suite.plant, 1, testutil.BaseTime, nil)

	boom := errors.New("boom")
	err := suite.store.Transaction(ctx, func(tx *store.Store) error {
		if _, err := tx.Orders().Delete(ctx, line.ID); err != nil {
			return err
		}
		return boom
	})
	suite.ErrorIs(err, boom)

	_, err = suite.store.Orders().Get(ctx, line.ID)
	suite.NoError(err, "delete must be rolled back")
}
