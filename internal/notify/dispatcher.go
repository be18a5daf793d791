package notify

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dispatcher fans product events out to interested users. For each event it
// looks up the wishlist audience, filters by opt-in preference, and enqueues
// one job per remaining user. Delivery itself happens in the worker.
type Dispatcher struct {
	repo   repository.NotificationRepository
	queue  Queue
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given repository and queue.
func NewDispatcher(repo repository.NotificationRepository, queue Queue, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		queue:  queue,
		logger: logger.With().Str("component", "notify_dispatcher").Logger(),
	}
}

// Dispatch enqueues notification jobs for the given events. Failures are
// logged per user so one bad enqueue does not starve the rest of the
// audience.
func (d *Dispatcher) Dispatch(ctx context.Context, events []model.ProductEvent) {
	for _, event := range events {
		if err := d.dispatchEvent(ctx, event); err != nil {
			d.logger.Error().Err(err).
				Str("event_id", event.ID.String()).
				Str("type", string(event.Type)).
				Msg("failed to dispatch product event")
		}
	}
}

func (d *Dispatcher) dispatchEvent(ctx context.Context, event model.ProductEvent) error {
	userIDs, err := d.repo.ListWishlistUsers(ctx, event.ProductID)
	if err != nil {
		return fmt.Errorf("failed to list wishlist users: %w", err)
	}
	if len(userIDs) == 0 {
		return nil
	}

	title, body := composeMessage(event)

	enqueued := 0
	for _, userID := range userIDs {
		pref, err := d.repo.GetPreference(ctx, userID)
		if err != nil {
			d.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load preference")
			continue
		}
		if !optedIn(pref, event.Type) {
			continue
		}

		job := Job{
			ID:        uuid.New(),
			UserID:    userID,
			ProductID: event.ProductID,
			Type:      event.Type,
			EventID:   event.ID,
			Title:     title,
			Body:      body,
			CreatedAt: event.OccurredAt,
		}
		if err := d.queue.Enqueue(ctx, job); err != nil {
			d.logger.Error().Err(err).
				Str("user_id", userID.String()).
				Str("event_id", event.ID.String()).
				Msg("failed to enqueue notification job")
			continue
		}
		enqueued++
	}

	d.logger.Info().
		Str("event_id", event.ID.String()).
		Str("type", string(event.Type)).
		Int("audience", len(userIDs)).
		Int("enqueued", enqueued).
		Msg("product event dispatched")

	return nil
}

// optedIn applies the preference rules: users without a preference row never
// receive notifications, and each event type has its own flag.
func optedIn(pref *model.NotificationPreference, t model.ProductEventType) bool {
	if pref == nil {
		return false
	}
	switch t {
	case model.ProductEventStockAvailable:
		return pref.StockAlertsEnabled
	case model.ProductEventPriceDrop:
		return pref.PriceDropAlertsEnabled
	default:
		return false
	}
}

func composeMessage(event model.ProductEvent) (title, body string) {
	switch event.Type {
	case model.ProductEventStockAvailable:
		return "Back in stock",
			fmt.Sprintf("%s is back in stock.", event.ProductName)
	case model.ProductEventPriceDrop:
		return "Price drop",
			fmt.Sprintf("%s dropped from %s to %s.",
				event.ProductName, event.PreviousPrice.StringFixed(2), event.CurrentPrice.StringFixed(2))
	default:
		return "Product update", fmt.Sprintf("%s was updated.", event.ProductName)
	}
}
