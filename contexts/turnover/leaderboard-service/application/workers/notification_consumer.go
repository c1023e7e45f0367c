package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"

	application "turnboard/contexts/turnover/leaderboard-service/application"
	"turnboard/contexts/turnover/leaderboard-service/application/commands"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

// NotificationConsumer turns batch lifecycle events into operator messages.
// It subscribes to all three batch topics and forwards formatted HTML text to
// the notifier.
type NotificationConsumer struct {
	Subscriber    ports.EventSubscriber
	Notifier      ports.Notifier
	ConsumerGroup string
	Logger        *slog.Logger
}

type batchEventView struct {
	BatchID    string  `json:"batch_id"`
	Date       string  `json:"date"`
	Country    string  `json:"country"`
	Slot       string  `json:"slot"`
	RowsCount  int     `json:"rows_count"`
	TotalLocal float64 `json:"total_local"`
	TotalUSD   float64 `json:"total_usd"`
	Actor      string  `json:"actor"`
	Reason     string  `json:"reason"`
}

func (c NotificationConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = "turnover-notifications-cg"
	}
	topics := []string{
		commands.EventBatchUploaded,
		commands.EventBatchApproved,
		commands.EventBatchRejected,
	}
	for _, topic := range topics {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handle); err != nil {
			return err
		}
	}
	return nil
}

func (c NotificationConsumer) handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	view, err := decodeBatchEvent(event.Payload)
	if err != nil {
		logger.Error("turnover notification decode failed",
			"event", "turnover_notification_decode_failed",
			"module", "turnover/leaderboard-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	if err := c.Notifier.Notify(ctx, formatBatchMessage(event.EventType, view)); err != nil {
		logger.Error("turnover notification send failed",
			"event", "turnover_notification_send_failed",
			"module", "turnover/leaderboard-service",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// decodeBatchEvent tolerates both in-process payload structs and payloads that
// went through a JSON round-trip in the outbox.
func decodeBatchEvent(payload any) (batchEventView, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return batchEventView{}, err
	}
	var view batchEventView
	if err := json.Unmarshal(raw, &view); err != nil {
		return batchEventView{}, err
	}
	return view, nil
}

func formatBatchMessage(eventType string, view batchEventView) string {
	key := fmt.Sprintf("%s / %s / %s", view.Date, view.Country, view.Slot)
	switch eventType {
	case commands.EventBatchApproved:
		return fmt.Sprintf(
			"✅ <b>Batch approved</b>\n%s\nrows: %d, total: $%.2f\nby %s",
			html.EscapeString(key), view.RowsCount, view.TotalUSD, html.EscapeString(view.Actor),
		)
	case commands.EventBatchRejected:
		return fmt.Sprintf(
			"❌ <b>Batch rejected</b>\n%s\nreason: %s\nby %s",
			html.EscapeString(key), html.EscapeString(view.Reason), html.EscapeString(view.Actor),
		)
	default:
		return fmt.Sprintf(
			"📥 <b>Batch uploaded</b>\n%s\nrows: %d, total: $%.2f\nby %s\nbatch: <code>%s</code>",
			html.EscapeString(key), view.RowsCount, view.TotalUSD,
			html.EscapeString(view.Actor), html.EscapeString(view.BatchID),
		)
	}
}
