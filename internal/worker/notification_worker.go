package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/civifix-service/internal/events"
	"github.com/spec-kit/civifix-service/internal/service"
)

// NotificationWorker bridges the event dispatcher and the notification
// service on a buffered channel so notification delivery never blocks the
// request path.
type NotificationWorker struct {
	notifications *service.NotificationService
	logger        *zap.Logger
	queue         chan events.Event
	done          chan struct{}
}

// NewNotificationWorker constructs the worker with a bounded queue.
func NewNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{
		notifications: notifications,
		logger:        logger,
		queue:         make(chan events.Event, 256),
		done:          make(chan struct{}),
	}
}

// Register subscribes the worker to every event type it delivers.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventIssueCreated,
		events.EventIssueAssigned,
		events.EventIssueStatusChanged,
		events.EventIssuePriorityChanged,
		events.EventIssueFixed,
		events.EventIssueDeleted,
		events.EventCommentAdded,
	} {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
	default:
		// Drop rather than block the request path when the queue is full.
		w.logger.Warn("notification queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("issue_id", event.IssueID),
		)
	}
	return nil
}

// Start runs the delivery loop until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-w.queue:
				if err := w.notifications.Notify(ctx, event); err != nil {
					w.logger.Error("notification delivery failed",
						zap.String("event_id", event.ID),
						zap.Error(err),
					)
				}
			}
		}
	}()
}

// Stop waits for the delivery loop to exit.
func (w *NotificationWorker) Stop() {
	<-w.done
}
