// Package notify bridges lot lifecycle events to the outbound webhook.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/events"
	"github.com/loomworks/loomledger/pkg/clients/webhook"
)

// Service forwards LotClosed events to the configured webhook endpoint.
type Service struct {
	client webhook.Client
	logger *zap.Logger
}

func NewService(client webhook.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

// HandleLotClosed satisfies events.LotClosedHandler.
func (s *Service) HandleLotClosed(ctx context.Context, ev events.LotClosed) error {
	n := webhook.LotClosedNotification{
		LotID:      ev.LotID.Hex(),
		TakaNumber: ev.TakaNumber,
		Reason:     string(ev.Reason),
		ClosedAt:   ev.At,
	}
	if !ev.MachineID.IsZero() {
		n.MachineID = ev.MachineID.Hex()
	}

	if err := s.client.NotifyLotClosed(ctx, n); err != nil {
		return err
	}

	s.logger.Info("lot closed notification delivered",
		zap.String("taka_number", ev.TakaNumber),
		zap.String("reason", string(ev.Reason)))
	return nil
}
