package services

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/greenleaf-nursery/nursery-api/models"
	"github.com/greenleaf-nursery/nursery-api/store"
	"github.com/samber/lo"
)

// BackfillResult summarises one backfill run.
type BackfillResult struct {
	Lines  int
	Orders int
}

// BackfillOrderGroups gives every legacy line an order group id. Lines are
// grouped with the same email, name and creation bucket rule the aggregator
// applies to them, so the logical orders shown before and after the run are
// identical. Running it again is a no-op.
func BackfillOrderGroups(ctx context.Context, s *store.Store, logger *log.Logger) (BackfillResult, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	var result BackfillResult
	err := s.Transaction(ctx, func(tx *store.Store) error {
		lines, err := tx.Orders().List(ctx, store.OrderFilter{LegacyOnly: true})
		if err != nil {
			return err
		}

		for _, order := range GroupOrderLines(lines) {
			ids := lo.Map(order.Lines, func(l models.OrderLine, _ int) uuid.UUID { return l.ID })
			n, err := tx.Orders().AssignGroup(ctx, uuid.New(), ids...)
			if err != nil {
				return err
			}
			result.Lines += int(n)
			result.Orders++
		}
		return nil
	})
	if err != nil {
		logger.Printf("backfill order groups: %v", err)
		return BackfillResult{}, fmt.Errorf("backfill order groups: %w", err)
	}

	logger.Printf("backfill: assigned %d group id(s) across %d line(s)", result.Orders, result.Lines)
	return result, nil
}
