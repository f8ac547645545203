package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/ticketing-backend/pkg/logger"
)

const (
	defaultExpiryBatch = 200
	maxExpiryBatches   = 50
)

type PurchaseExpiryJobParams struct {
	Logger    *logger.Logger
	Purchases purchaseExpirer
	BatchSize int
}

type purchaseExpirer interface {
	ExpireOverdue(ctx context.Context, userID *uuid.UUID, limit int) (int64, error)
}

// NewPurchaseExpiryJob sweeps pending purchases whose payment window closed
// and hands their carts back to the buyers.
func NewPurchaseExpiryJob(params PurchaseExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Purchases == nil {
		return nil, fmt.Errorf("purchases service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &purchaseExpiryJob{
		logg:      params.Logger,
		purchases: params.Purchases,
		batch:     batch,
	}, nil
}

type purchaseExpiryJob struct {
	logg      *logger.Logger
	purchases purchaseExpirer
	batch     int
}

func (j *purchaseExpiryJob) Name() string { return "purchase-expiry" }

func (j *purchaseExpiryJob) Run(ctx context.Context) error {
	var total int64
	for i := 0; i < maxExpiryBatches; i++ {
		n, err := j.purchases.ExpireOverdue(ctx, nil, j.batch)
		if err != nil {
			return fmt.Errorf("expire overdue purchases: %w", err)
		}
		total += n
		if n < int64(j.batch) {
			break
		}
	}
	if total > 0 {
		j.logg.Info(j.logg.WithField(ctx, "cancelled", total), "expired overdue purchases")
	}
	return nil
}
