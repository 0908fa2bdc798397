package services

import (
	"context"
	"errors"
	"time"

	mbdto "bustrack/internal/driver-service/core/domain/message_broker_dto"
	ports "bustrack/internal/driver-service/core/ports/driven"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/myerrors"
)

const publishTimeout = 3 * time.Second

// TrackingService flips the per-driver tracking flag. Both transitions are
// idempotent.
type TrackingService struct {
	drivers ports.IDriverRepo
	broker  ports.IDriverBroker
	mylog   mylogger.Logger
	now     func() time.Time
}

func NewTrackingService(drivers ports.IDriverRepo, broker ports.IDriverBroker, mylog mylogger.Logger) *TrackingService {
	return &TrackingService{
		drivers: drivers,
		broker:  broker,
		mylog:   mylog,
		now:     time.Now,
	}
}

func (ts *TrackingService) Start(ctx context.Context, driverID string) error {
	return ts.set(ctx, driverID, true)
}

func (ts *TrackingService) Stop(ctx context.Context, driverID string) error {
	return ts.set(ctx, driverID, false)
}

func (ts *TrackingService) set(ctx context.Context, driverID string, active bool) error {
	action, failMsg, key := "tracking_start", "Failed to start tracking", mbdto.KeyTrackingStarted
	if !active {
		action, failMsg, key = "tracking_stop", "Failed to stop tracking", mbdto.KeyTrackingStopped
	}
	mylog := ts.mylog.Action(action).With("driver_id", driverID)

	if err := ts.drivers.SetTracking(ctx, driverID, active); err != nil {
		if errors.Is(err, myerrors.ErrNotFound) {
			return myerrors.Wrap(myerrors.ErrNotFound, "Driver not found", err)
		}
		mylog.Error("failed to update tracking flag", err)
		return myerrors.Wrap(myerrors.ErrInternal, failMsg, err)
	}
	mylog.Info("tracking flag updated", "is_tracking", active)

	publish(ctx, ts.broker, mylog, key, mbdto.TrackingEvent{
		DriverID:   driverID,
		IsTracking: active,
		OccurredAt: ts.now().UTC(),
	})
	return nil
}

// publish sends an event if a broker is configured. Failures are logged
// and never reach the caller.
func publish(ctx context.Context, broker ports.IDriverBroker, mylog mylogger.Logger, key string, msg any) {
	if broker == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := broker.PublishJSON(pubCtx, mbdto.Exchange, key, msg); err != nil {
		mylog.Warn("failed to publish event", "routing_key", key, "error", err.Error())
	}
}
