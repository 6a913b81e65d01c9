package service

import (
	"context"
	"time"

	"hitpay-gateway/internal/models"
	"hitpay-gateway/internal/util"

	"go.uber.org/zap"
)

const defaultStatusTTL = time.Hour

// StatusService answers the thank-you page status polls. It never writes to
// the order store.
type StatusService struct {
	store  OrderStore
	cache  StatusCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatusService creates a new status service. cache may be nil.
func NewStatusService(store OrderStore, cache StatusCache, ttl time.Duration) *StatusService {
	if ttl <= 0 {
		ttl = defaultStatusTTL
	}
	return &StatusService{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

// Poll returns the last webhook status of an order, or wait when none arrived yet.
func (s *StatusService) Poll(ctx context.Context, orderID int64) models.PollResponse {
	resp := s.poll(ctx, orderID)
	util.StatusPollsTotal.WithLabelValues(statusLabel(resp.Status)).Inc()
	return resp
}

func (s *StatusService) poll(ctx context.Context, orderID int64) models.PollResponse {
	if orderID <= 0 {
		return models.PollResponse{Status: models.PollStatusError, Message: models.ErrOrderNotFound.Error()}
	}

	if s.cache != nil {
		status, err := s.cache.CachedStatus(ctx, orderID)
		if err != nil {
			s.logger.Warn("Status cache read failed", zap.Int64("order_id", orderID), zap.Error(err))
		} else if status != "" {
			util.StatusCacheHitsTotal.Inc()
			return models.PollResponse{Status: status}
		}
	}

	status, err := s.store.GetMeta(ctx, orderID, models.MetaWebhookStatus)
	if err != nil {
		s.logger.Error("Status lookup failed", zap.Int64("order_id", orderID), zap.Error(err))
		return models.PollResponse{Status: models.PollStatusError, Message: err.Error()}
	}
	if status == "" {
		return models.PollResponse{Status: models.PollStatusWait}
	}

	if s.cache != nil {
		if err := s.cache.CacheStatus(ctx, orderID, status, s.ttl); err != nil {
			s.logger.Warn("Status cache write failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}
	return models.PollResponse{Status: status}
}

// statusLabel keeps metric labels to the known statuses.
func statusLabel(status string) string {
	switch status {
	case models.PaymentStatusCompleted, models.PaymentStatusFailed, models.PaymentStatusPending,
		models.PollStatusWait, models.PollStatusError:
		return status
	}
	return "unknown"
}
