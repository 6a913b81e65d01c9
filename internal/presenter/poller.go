package presenter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hitpay-gateway/internal/models"
)

const (
	DefaultPollInterval    = 2 * time.Second
	DefaultPollMaxAttempts = 150
)

// ErrPollTimeout is returned once MaxAttempts polls all answered wait.
var ErrPollTimeout = errors.New("payment status not received in time")

// StatusFetcher reads the poll endpoint for one order.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, orderID int64) (models.PollResponse, error)
}

// Poller repeats status reads until a terminal status arrives.
type Poller struct {
	Fetcher     StatusFetcher
	Interval    time.Duration
	MaxAttempts int
	// OnAttempt, when set, sees every response including wait.
	OnAttempt func(attempt int, resp models.PollResponse, err error)
}

// NewPoller creates a poller with the page defaults.
func NewPoller(fetcher StatusFetcher) *Poller {
	return &Poller{
		Fetcher:     fetcher,
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultPollMaxAttempts,
	}
}

// Run polls until a terminal status, the attempt ceiling, or ctx ends.
// Fetch errors count as attempts and are retried.
func (p *Poller) Run(ctx context.Context, orderID int64) (models.PollResponse, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollMaxAttempts
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		resp, err := p.Fetcher.FetchStatus(ctx, orderID)
		if p.OnAttempt != nil {
			p.OnAttempt(attempt, resp, err)
		}
		if err == nil && IsTerminal(resp.Status) {
			return resp, nil
		}
		if attempt >= maxAttempts {
			return models.PollResponse{
				Status:  models.PollStatusError,
				Message: MessageError,
			}, fmt.Errorf("%w: %d attempts", ErrPollTimeout, attempt)
		}

		select {
		case <-ctx.Done():
			return models.PollResponse{Status: models.PollStatusError, Message: MessageError}, ctx.Err()
		case <-ticker.C:
		}
	}
}
