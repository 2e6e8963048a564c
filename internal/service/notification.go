package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Strob0t/TwinForge/internal/port/messagequeue"
	"github.com/Strob0t/TwinForge/internal/port/notifier"
)

// notifySubjects are the queue subjects turned into notifications.
var notifySubjects = []string{
	messagequeue.SubjectResponsePublished,
	messagequeue.SubjectResponseWithheld,
	messagequeue.SubjectJobCompleted,
}

// NotificationService dispatches publication outcomes to every configured
// notifier.
type NotificationService struct {
	notifiers     []notifier.Notifier
	enabledEvents map[string]bool
}

// NewNotificationService creates a NotificationService with the given
// notifiers and list of enabled events (queue subjects such as
// "responses.published"). If enabledEvents is empty, all events are enabled.
func NewNotificationService(notifiers []notifier.Notifier, enabledEvents []string) *NotificationService {
	enabled := make(map[string]bool, len(enabledEvents))
	for _, e := range enabledEvents {
		enabled[e] = true
	}
	return &NotificationService{
		notifiers:     notifiers,
		enabledEvents: enabled,
	}
}

// Notify sends a notification to all registered notifiers.
// Errors are logged but do not interrupt delivery to other notifiers.
func (s *NotificationService) Notify(ctx context.Context, n notifier.Notification) {
	if len(s.enabledEvents) > 0 && !s.enabledEvents[n.Event] {
		return
	}

	for _, provider := range s.notifiers {
		if err := provider.Send(ctx, n); err != nil {
			slog.Warn("notification send failed",
				"provider", provider.Name(),
				"title", n.Title,
				"error", err,
			)
			continue
		}
		slog.Debug("notification sent", "provider", provider.Name(), "title", n.Title)
	}
}

// NotifierCount returns the number of registered notifiers.
func (s *NotificationService) NotifierCount() int {
	return len(s.notifiers)
}

// Start subscribes to the publication and job subjects on q. The returned
// function cancels every subscription. With no notifiers it subscribes to
// nothing.
func (s *NotificationService) Start(ctx context.Context, q messagequeue.Subscriber) (func(), error) {
	if len(s.notifiers) == 0 {
		return func() {}, nil
	}
	var cancels []func()
	stop := func() {
		for _, c := range cancels {
			c()
		}
	}
	for _, subject := range notifySubjects {
		cancel, err := q.Subscribe(ctx, subject, s.handleEvent)
		if err != nil {
			stop()
			return nil, fmt.Errorf("subscribe %s: %w", subject, err)
		}
		cancels = append(cancels, cancel)
	}
	slog.Info("notifications enabled", "notifiers", s.NotifierCount(), "subjects", notifySubjects)
	return stop, nil
}

func (s *NotificationService) handleEvent(ctx context.Context, subject string, data []byte) error {
	n, ok, err := notificationFor(subject, data)
	if err != nil {
		// Redelivery cannot fix a malformed message.
		slog.Error("dropping undecodable event", "subject", subject, "error", err)
		return nil
	}
	if ok {
		s.Notify(ctx, n)
	}
	return nil
}

// notificationFor renders a queue event. Completed jobs are skipped because
// their response event already produced a notification.
func notificationFor(subject string, data []byte) (notifier.Notification, bool, error) {
	switch subject {
	case messagequeue.SubjectResponsePublished, messagequeue.SubjectResponseWithheld:
		var p messagequeue.ResponseEventPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return notifier.Notification{}, false, err
		}
		n := notifier.Notification{
			Event: subject,
			Fields: []notifier.Field{
				{Label: "Request", Value: p.RequestID},
				{Label: "Type", Value: p.RequestType},
				{Label: "Score", Value: strconv.FormatFloat(p.QualityScore, 'f', 3, 64)},
				{Label: "Experts", Value: strings.Join(p.ExpertsUsed, ", ")},
			},
		}
		if subject == messagequeue.SubjectResponsePublished {
			n.Title = "Response published"
			n.Level = notifier.LevelSuccess
			n.Message = fmt.Sprintf("%s was approved with %s quality and appended to the response store.", p.RequestID, p.QualityLevel)
		} else {
			n.Title = "Response withheld"
			n.Level = notifier.LevelWarning
			n.Message = fmt.Sprintf("%s scored %s quality, below the publication floor.", p.RequestID, p.QualityLevel)
		}
		return n, true, nil

	case messagequeue.SubjectJobCompleted:
		var p messagequeue.JobCompletedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return notifier.Notification{}, false, err
		}
		if p.Status != string(JobError) {
			return notifier.Notification{}, false, nil
		}
		return notifier.Notification{
			Title:   "Background request failed",
			Message: p.Error,
			Level:   notifier.LevelError,
			Event:   subject,
			Fields: []notifier.Field{
				{Label: "Request", Value: p.RequestID},
				{Label: "Processing ID", Value: p.ProcessingID},
			},
		}, true, nil
	}
	return notifier.Notification{}, false, nil
}
