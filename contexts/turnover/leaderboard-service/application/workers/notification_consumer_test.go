package workers

import (
	"context"
	"strings"
	"testing"

	"turnboard/contexts/turnover/leaderboard-service/ports"
)

type captureSubscriber struct {
	handlers map[string]func(context.Context, ports.EventEnvelope) error
	group    string
}

func (s *captureSubscriber) Subscribe(_ context.Context, topic string, consumerGroup string, handler func(context.Context, ports.EventEnvelope) error) error {
	if s.handlers == nil {
		s.handlers = make(map[string]func(context.Context, ports.EventEnvelope) error)
	}
	s.handlers[topic] = handler
	s.group = consumerGroup
	return nil
}

type captureNotifier struct {
	messages []string
}

func (n *captureNotifier) Notify(_ context.Context, text string) error {
	n.messages = append(n.messages, text)
	return nil
}

func TestNotificationConsumerSubscribesBatchTopics(t *testing.T) {
	subscriber := &captureSubscriber{}
	consumer := NotificationConsumer{Subscriber: subscriber, Notifier: &captureNotifier{}}

	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	for _, topic := range []string{"turnover.batch_uploaded", "turnover.batch_approved", "turnover.batch_rejected"} {
		if subscriber.handlers[topic] == nil {
			t.Fatalf("missing subscription for %s", topic)
		}
	}
	if subscriber.group != "turnover-notifications-cg" {
		t.Fatalf("unexpected consumer group %q", subscriber.group)
	}
}

func TestNotificationConsumerFormatsApproval(t *testing.T) {
	subscriber := &captureSubscriber{}
	notifier := &captureNotifier{}
	consumer := NotificationConsumer{Subscriber: subscriber, Notifier: notifier}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	err := subscriber.handlers["turnover.batch_approved"](context.Background(), ports.EventEnvelope{
		EventID:   "e1",
		EventType: "turnover.batch_approved",
		Payload: map[string]any{
			"batch_id":   "b1",
			"date":       "2026-03-10",
			"country":    "BR",
			"slot":       "00_12",
			"rows_count": 3,
			"total_usd":  42.5,
			"actor":      "ops@example.com",
		},
	})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(notifier.messages))
	}
	msg := notifier.messages[0]
	for _, want := range []string{"Batch approved", "2026-03-10 / BR / 00_12", "rows: 3", "$42.50", "ops@example.com"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestNotificationConsumerEscapesRejectReason(t *testing.T) {
	subscriber := &captureSubscriber{}
	notifier := &captureNotifier{}
	consumer := NotificationConsumer{Subscriber: subscriber, Notifier: notifier}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	err := subscriber.handlers["turnover.batch_rejected"](context.Background(), ports.EventEnvelope{
		EventType: "turnover.batch_rejected",
		Payload: map[string]any{
			"date":    "2026-03-10",
			"country": "MX",
			"slot":    "00_06",
			"reason":  "<script>duplicated rows</script>",
			"actor":   "mod@example.com",
		},
	})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	msg := notifier.messages[0]
	if strings.Contains(msg, "<script>") {
		t.Fatalf("reason must be HTML-escaped:\n%s", msg)
	}
	if !strings.Contains(msg, "Batch rejected") || !strings.Contains(msg, "duplicated rows") {
		t.Fatalf("unexpected reject message:\n%s", msg)
	}
}
