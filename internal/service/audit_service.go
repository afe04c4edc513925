package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"

	"rag-gateway-be/internal/pkg/logger"
	"rag-gateway-be/pkg/events"
)

type IAuditService interface {
	Consume(ctx context.Context) error
}

// auditService drains the in-process audit topic and writes each event into
// the structured log. It is the only consumer of the bus.
type auditService struct {
	subscriber message.Subscriber
	logger     logger.ILogger
}

func NewAuditService(subscriber message.Subscriber, sysLogger logger.ILogger) IAuditService {
	return &auditService{
		subscriber: subscriber,
		logger:     sysLogger,
	}
}

func (a *auditService) Consume(ctx context.Context) error {
	messages, err := a.subscriber.Subscribe(ctx, events.AuditTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			a.processMessage(msg)
		}
	}()

	return nil
}

func (a *auditService) processMessage(msg *message.Message) {
	var evt events.AuditEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		// Ack invalid messages to prevent infinite retry
		a.logger.Warn("AUDIT", "failed to unmarshal audit event", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	details := map[string]interface{}{
		"occurred_at": evt.OccurredAt,
	}
	for k, v := range evt.Details {
		details[k] = v
	}
	a.logger.Info("AUDIT", evt.Type, details)
	msg.Ack()
}
