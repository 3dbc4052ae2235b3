package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

const defaultPushInterval = time.Hour

type inventoryPusher interface {
	PushAvailability(ctx context.Context) error
	PushRates(ctx context.Context) error
}

// InventoryPushJobParams configure the periodic full-window push job.
type InventoryPushJobParams struct {
	Logger       *logger.Logger
	Orchestrator inventoryPusher
	Interval     time.Duration
}

// NewInventoryPushJob builds the job that refreshes availability and rates on
// every channel. Event-driven pushes keep channels current between runs; this
// job repairs whatever drift those misses leave behind.
func NewInventoryPushJob(params InventoryPushJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orchestrator == nil {
		return nil, fmt.Errorf("sync orchestrator required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultPushInterval
	}
	return &inventoryPushJob{
		logg:         params.Logger,
		orchestrator: params.Orchestrator,
		interval:     interval,
	}, nil
}

type inventoryPushJob struct {
	logg         *logger.Logger
	orchestrator inventoryPusher
	interval     time.Duration
}

func (j *inventoryPushJob) Name() string { return "inventory-push" }

func (j *inventoryPushJob) Interval() time.Duration { return j.interval }

// Run pushes availability first so oversell protection lands before pricing.
// A failed availability push does not block the rates push; both errors are
// reported together.
func (j *inventoryPushJob) Run(ctx context.Context) error {
	var combined error
	if err := j.orchestrator.PushAvailability(ctx); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("availability push: %w", err))
	}
	if err := j.orchestrator.PushRates(ctx); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("rates push: %w", err))
	}
	if combined != nil {
		return combined
	}
	j.logg.Info(ctx, "inventory push complete")
	return nil
}
