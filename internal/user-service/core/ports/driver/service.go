package driver

import (
	"context"

	"bustrack/internal/shared/models"
	"bustrack/internal/user-service/core/domain/dto"
)

type IBusService interface {
	GetDriverByBusNumber(ctx context.Context, busNumber string) (models.DriverWithRoute, error)
}

type ILiveLocationService interface {
	GetLiveLocation(ctx context.Context, driverID string) (dto.LiveLocation, error)
}
