package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/campushive/backend/internal/models"
)

// Store is the persistence seam for the notifier.
type Store interface {
	Insert(ctx context.Context, n *models.Notification) error
	ActiveRegistrantIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error)
}

// Pusher delivers a realtime message to one user's open connections.
type Pusher interface {
	SendToUser(userID uuid.UUID, event string, payload interface{})
}

// Service is the notification collaborator: insert a row and push it over the
// hub. Fire-and-forget; a failed notification never rolls back the action
// that triggered it.
type Service struct {
	store      Store
	pusher     Pusher
	logger     *zap.Logger
	fanoutConc int
}

// NewService creates a notification service. fanoutConcurrency bounds the
// parallelism of bulk announcements.
func NewService(store Store, pusher Pusher, fanoutConcurrency int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fanoutConcurrency <= 0 {
		fanoutConcurrency = 8
	}
	return &Service{store: store, pusher: pusher, logger: logger, fanoutConc: fanoutConcurrency}
}

// Notify delivers one in-app notification. Errors are logged, never returned.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, title, content, kind string) {
	n := &models.Notification{UserID: userID, Title: title, Content: content, Kind: kind}
	if err := s.store.Insert(ctx, n); err != nil {
		s.logger.Error("notification insert failed",
			zap.String("user_id", userID.String()),
			zap.String("kind", kind),
			zap.Error(err))
		return
	}
	if s.pusher != nil {
		s.pusher.SendToUser(userID, "notification", n)
	}
}

// Announce fans one announcement out to every active registrant of an event
// with bounded concurrency. Individual failures are counted, not propagated:
// a partly failed fan-out still reports how far it got.
func (s *Service) Announce(ctx context.Context, eventID uuid.UUID, title, content, kind string) (models.FanoutReport, error) {
	ids, err := s.store.ActiveRegistrantIDs(ctx, eventID)
	if err != nil {
		return models.FanoutReport{}, err
	}
	report := models.FanoutReport{Requested: len(ids)}
	if len(ids) == 0 {
		return report, nil
	}

	results := make([]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanoutConc)
	for i, userID := range ids {
		i, userID := i, userID
		g.Go(func() error {
			n := &models.Notification{UserID: userID, Title: title, Content: content, Kind: kind}
			if err := s.store.Insert(gctx, n); err != nil {
				s.logger.Warn("fanout insert failed", zap.String("user_id", userID.String()), zap.Error(err))
				return nil // partial failure must not cancel the group
			}
			if s.pusher != nil {
				s.pusher.SendToUser(userID, "notification", n)
			}
			results[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for _, ok := range results {
		if ok {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	return report, nil
}
