package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/domain/models"
	"github.com/mamadbah2/praya-stock/internal/repository"
)

// Reconcile recomputes every item's stock as initial + incoming - outgoing
// and reports the items whose stored stock differs. With repair set the
// stored value is overwritten with the derived one.
func (s *Service) Reconcile(ctx context.Context, repair bool) (drifts []models.StockDrift, err error) {
	defer func() { s.metrics.LedgerOperation("reconcile", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	incoming, err := s.incoming.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load incoming events: %w", err)
	}
	outgoing, err := s.outgoing.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load outgoing events: %w", err)
	}

	net := make(map[string]int, len(items))
	for _, ev := range incoming {
		net[ev.ItemID] += ev.Quantity
	}
	for _, ev := range outgoing {
		net[ev.ItemID] -= ev.Quantity
	}

	for _, item := range items {
		derived := item.InitialStock + net[item.ID]
		if derived == item.Stock {
			continue
		}

		drift := models.StockDrift{
			ItemID:  item.ID,
			Code:    item.Code,
			Name:    item.Name,
			Stored:  item.Stock,
			Derived: derived,
		}
		if repair {
			if err := s.items.Update(ctx, item.ID, repository.Fields{"stock": derived}); err != nil {
				return drifts, fmt.Errorf("repair stock of %s: %w", item.ID, err)
			}
			drift.Repaired = true
			s.publish(ctx, models.EventStockReconciled, item.ID, derived-item.Stock, derived)
		}
		drifts = append(drifts, drift)
	}

	s.logger.Info("stock reconciled",
		zap.Int("items", len(items)),
		zap.Int("drifted", len(drifts)),
		zap.Bool("repair", repair),
	)
	return drifts, nil
}
