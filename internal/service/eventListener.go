package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/icongen/internal/entity"
	"github.com/ds124wfegd/icongen/internal/pkg/icongen"
	"github.com/ds124wfegd/icongen/internal/pkg/kafka"
	"github.com/ds124wfegd/icongen/internal/pkg/rabbitMQ"
	"github.com/sirupsen/logrus"
)

// eventListener publishes generator lifecycle events. Broker failures are
// logged and otherwise ignored.
type eventListener struct {
	sessionID string
	generator *icongen.Generator
	publisher EventPublisher
	now       func() time.Time
}

func (l *eventListener) publish(event entity.IconEvent) {
	event.SessionID = l.sessionID
	event.At = l.now().UTC()
	event.Frame = l.generator.FrameIndex()
	if event.DrawSize == 0 {
		event.DrawSize = l.generator.DrawSize()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.publisher.Publish(ctx, event); err != nil {
		logrus.WithFields(logrus.Fields{
			"session_id": l.sessionID,
			"event":      event.Type,
		}).Errorf("publish event: %v", err)
	}
}

func (l *eventListener) OnReadFile(f icongen.File) {
	event := entity.IconEvent{Type: entity.EventFileReceived}
	if f != nil {
		event.FileName = f.Name()
		event.MIMEType = f.Type()
	}
	l.publish(event)
}

func (l *eventListener) OnFileTypeError(f icongen.File) {
	event := entity.IconEvent{Type: entity.EventFileTypeError}
	if f != nil {
		event.FileName = f.Name()
		event.MIMEType = f.Type()
	}
	l.publish(event)
}

func (l *eventListener) OnDecodeError(err error) {
	l.publish(entity.IconEvent{Type: entity.EventDecodeError, Error: err.Error()})
}

func (l *eventListener) OnRender() {}

func (l *eventListener) OnRenderError(err error) {
	l.publish(entity.IconEvent{Type: entity.EventRenderError, Error: err.Error()})
}

func (l *eventListener) OnRendered(info icongen.DrawInfo) {
	l.publish(entity.IconEvent{
		Type:     entity.EventRendered,
		FileName: l.generator.FileName(),
		DrawSize: info.Size,
		Width:    info.Width,
		Height:   info.Height,
		X:        info.X,
		Y:        info.Y,
	})
}

func (l *eventListener) OnExit() {
	l.publish(entity.IconEvent{Type: entity.EventExit})
}

type kafkaPublisher struct {
	producer kafka.Producer
}

func NewKafkaPublisher(producer kafka.Producer) EventPublisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event entity.IconEvent) error {
	return p.producer.SendMessage(ctx, event.SessionID, event)
}

type rabbitPublisher struct {
	queue *rabbitMQ.RabbitMQ
}

func NewRabbitPublisher(queue *rabbitMQ.RabbitMQ) EventPublisher {
	return &rabbitPublisher{queue: queue}
}

func (p *rabbitPublisher) Publish(ctx context.Context, event entity.IconEvent) error {
	return p.queue.Publish(ctx, event)
}
