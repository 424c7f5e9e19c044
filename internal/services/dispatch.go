package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumehq/lume-backend/internal/clients/delivery"
	"github.com/lumehq/lume-backend/internal/platform/breaker"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

// DispatchService routes rendered interventions to their delivery
// channel. Every channel sits behind its own breaker; a failed or
// short-circuited delivery is dropped, never an error. The caller only
// learns whether the message went out.
type DispatchService interface {
	Dispatch(ctx context.Context, userID uuid.UUID, channel string, msg delivery.Message) bool
}

type dispatchService struct {
	log        *logger.Logger
	deliverers map[string]delivery.Deliverer
	registry   *breaker.Registry
}

func NewDispatchService(log *logger.Logger, reg *breaker.Registry, deliverers ...delivery.Deliverer) DispatchService {
	byChannel := make(map[string]delivery.Deliverer, len(deliverers))
	for _, d := range deliverers {
		if d != nil {
			byChannel[d.Channel()] = d
		}
	}
	return &dispatchService{
		log:        log.With("service", "DispatchService"),
		deliverers: byChannel,
		registry:   reg,
	}
}

func (s *dispatchService) Dispatch(ctx context.Context, userID uuid.UUID, channel string, msg delivery.Message) bool {
	d, ok := s.deliverers[channel]
	if !ok {
		s.log.Warn("no deliverer for channel", "channel", channel)
		return false
	}
	msg.UserID = userID

	delivered := breaker.DoWithFallback(s.registry.Get(channel), func() (bool, error) {
		if err := d.Deliver(ctx, msg); err != nil {
			s.log.Warn("delivery failed", "channel", channel, "user_id", userID, "error", err)
			return false, err
		}
		return true, nil
	}, false)

	if !delivered {
		s.log.Info("intervention dropped", "channel", channel, "user_id", userID, "action_type", msg.ActionType)
	}
	return delivered
}
