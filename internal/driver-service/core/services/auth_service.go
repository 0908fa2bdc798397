package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bustrack/internal/driver-service/core/domain/dto"
	ports "bustrack/internal/driver-service/core/ports/driven"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

const (
	HashFactor = 10

	claimDriverID = "driverId"
)

const (
	msgInvalidCredentials = "Invalid driver credentials"
	msgAuthRequired       = "Driver authentication required"
	msgInvalidToken       = "Invalid driver token"
)

var errTokenExpired = errors.New("token expired")

type AuthService struct {
	drivers  ports.IDriverRepo
	secret   []byte
	tokenTTL time.Duration
	mylog    mylogger.Logger
	now      func() time.Time
}

func NewAuthService(drivers ports.IDriverRepo, secret string, tokenTTL time.Duration, mylog mylogger.Logger) *AuthService {
	return &AuthService{
		drivers:  drivers,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		mylog:    mylog,
		now:      time.Now,
	}
}

func (as *AuthService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	mylog := as.mylog.Action("driver_login")

	driver, err := as.drivers.ResolveByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, myerrors.ErrNotFound) {
			return dto.LoginResponse{}, myerrors.New(myerrors.ErrUnauthorized, msgInvalidCredentials)
		}
		mylog.Error("failed to load driver", err)
		return dto.LoginResponse{}, myerrors.Wrap(myerrors.ErrInternal, "Failed to login driver", err)
	}

	if !CheckPassword(driver.PasswordHash, req.Password) {
		return dto.LoginResponse{}, myerrors.New(myerrors.ErrUnauthorized, msgInvalidCredentials)
	}

	token, err := as.IssueToken(driver.ID)
	if err != nil {
		mylog.Error("failed to sign token", err)
		return dto.LoginResponse{}, myerrors.Wrap(myerrors.ErrInternal, "Failed to login driver", err)
	}

	mylog.Info("driver logged in", "driver_id", driver.ID)
	return dto.LoginResponse{
		Token:     token,
		DriverID:  driver.ID,
		BusNumber: driver.BusNumber,
		Message:   "Driver login successful",
	}, nil
}

func (as *AuthService) IssueToken(driverID string) (string, error) {
	now := as.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		claimDriverID: driverID,
		"iat":         now.Unix(),
		"exp":         now.Add(as.tokenTTL).Unix(),
	})
	return token.SignedString(as.secret)
}

// ValidateToken returns the driver id carried by a signed, unexpired token.
func (as *AuthService) ValidateToken(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return as.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return "", fmt.Errorf("exp is required")
	}
	if !as.now().Before(time.Unix(int64(exp), 0)) {
		return "", errTokenExpired
	}

	driverID, ok := claims[claimDriverID].(string)
	if !ok || driverID == "" {
		return "", fmt.Errorf("%s is required", claimDriverID)
	}
	return driverID, nil
}

func (as *AuthService) Authenticate(ctx context.Context, tokenString string) (models.Driver, error) {
	if strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer ")) == "" {
		return models.Driver{}, myerrors.New(myerrors.ErrUnauthorized, msgAuthRequired)
	}

	driverID, err := as.ValidateToken(tokenString)
	if err != nil {
		as.mylog.Action("authenticate").Debug("token rejected", "reason", err.Error())
		return models.Driver{}, myerrors.Wrap(myerrors.ErrUnauthorized, msgInvalidToken, err)
	}

	driver, err := as.drivers.Resolve(ctx, driverID)
	if err != nil {
		if errors.Is(err, myerrors.ErrNotFound) {
			return models.Driver{}, myerrors.Wrap(myerrors.ErrUnauthorized, msgInvalidToken, err)
		}
		return models.Driver{}, myerrors.Wrap(myerrors.ErrInternal, "Failed to authenticate driver", err)
	}
	return driver, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), HashFactor)
	return string(bytes), err
}

func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
