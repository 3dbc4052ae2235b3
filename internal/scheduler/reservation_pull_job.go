package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

const defaultPullInterval = 15 * time.Minute

type reservationPuller interface {
	PullReservations(ctx context.Context) error
}

// ReservationPullJobParams configure the reservation pull job.
type ReservationPullJobParams struct {
	Logger       *logger.Logger
	Orchestrator reservationPuller
	Interval     time.Duration
}

// NewReservationPullJob builds the job that ingests new reservations from
// every connected channel.
func NewReservationPullJob(params ReservationPullJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orchestrator == nil {
		return nil, fmt.Errorf("sync orchestrator required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultPullInterval
	}
	return &reservationPullJob{
		logg:         params.Logger,
		orchestrator: params.Orchestrator,
		interval:     interval,
	}, nil
}

type reservationPullJob struct {
	logg         *logger.Logger
	orchestrator reservationPuller
	interval     time.Duration
}

func (j *reservationPullJob) Name() string { return "reservation-pull" }

func (j *reservationPullJob) Interval() time.Duration { return j.interval }

func (j *reservationPullJob) Run(ctx context.Context) error {
	if err := j.orchestrator.PullReservations(ctx); err != nil {
		return fmt.Errorf("reservation pull: %w", err)
	}
	j.logg.Info(ctx, "reservation pull complete")
	return nil
}
