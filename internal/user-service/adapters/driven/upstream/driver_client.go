package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bustrack/internal/config"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/myerrors"
	"bustrack/internal/user-service/core/domain/dto"
	ports "bustrack/internal/user-service/core/ports/driven"
)

const (
	retryPause   = 200 * time.Millisecond
	maxBodyBytes = 1 << 20

	transportMessage = "Failed to communicate with driver server"
)

// DriverClient calls the Driver Service latest-location endpoint. Every
// attempt has its own timeout; a transport failure or a 502/503/504 is
// retried at most cfg.Retries times.
type DriverClient struct {
	baseURL string
	timeout time.Duration
	retries int
	pause   time.Duration
	client  *http.Client
	mylog   mylogger.Logger
}

var _ ports.IDriverAPI = (*DriverClient)(nil)

func NewDriverClient(cfg config.Upstreamconfig, mylog mylogger.Logger) *DriverClient {
	return &DriverClient{
		baseURL: strings.TrimRight(cfg.DriverAPIBaseURL, "/"),
		timeout: cfg.Timeout,
		retries: cfg.Retries,
		pause:   retryPause,
		client:  &http.Client{},
		mylog:   mylog,
	}
}

func (c *DriverClient) LatestLocation(ctx context.Context, driverID string) (dto.LiveLocation, error) {
	endpoint := fmt.Sprintf("%s/user/driver/%s/latest-location", c.baseURL, url.PathEscape(driverID))
	mylog := c.mylog.Action("driver_api_latest_location").With("driver_id", driverID)

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, myerrors.Wrap(myerrors.ErrTransport, transportMessage, ctx.Err())
			case <-time.After(c.pause):
			}
			mylog.Info("retrying driver service call", "attempt", attempt+1, "error", lastErr.Error())
		}

		loc, err := c.latestOnce(ctx, endpoint)
		if err == nil {
			return loc, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *DriverClient) latestOnce(ctx context.Context, endpoint string) (dto.LiveLocation, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, myerrors.Wrap(myerrors.ErrTransport, transportMessage, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, myerrors.Wrap(myerrors.ErrTransport, transportMessage, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, myerrors.Wrap(myerrors.ErrTransport, transportMessage, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &myerrors.UpstreamError{Status: resp.StatusCode, Body: decodeBody(body)}
	}

	var loc dto.LiveLocation
	if err := json.Unmarshal(body, &loc); err != nil {
		return nil, myerrors.Wrap(myerrors.ErrTransport, transportMessage, fmt.Errorf("decode driver service response: %w", err))
	}
	return loc, nil
}

// decodeBody keeps JSON bodies structured and falls back to the raw text.
func decodeBody(body []byte) any {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		return v
	}
	return string(body)
}

func retryable(err error) bool {
	var upstream *myerrors.UpstreamError
	if errors.As(err, &upstream) {
		switch upstream.Status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	// a decode failure means the service answered; asking again won't help
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false
	}
	return errors.Is(err, myerrors.ErrTransport)
}
