package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Consumer struct {
	reader *kafka.Reader
	logger logrus.FieldLogger
}

func NewConsumer(brokers []string, groupID, topic string, logger logrus.FieldLogger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads until ctx is cancelled or the handler fails.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
}

// BookingEventHandler adapts a typed handler to raw messages. Undecodable
// messages are logged and skipped so one bad payload cannot stall the group.
func BookingEventHandler(logger logrus.FieldLogger, handle func(context.Context, BookingEvent) error) func(context.Context, kafka.Message) error {
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := DecodeBookingEvent(msg.Value)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"topic":  msg.Topic,
				"offset": msg.Offset,
			}).Warn("skipping malformed booking event")
			return nil
		}
		return handle(ctx, event)
	}
}

func DecodeBookingEvent(data []byte) (BookingEvent, error) {
	var event BookingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return BookingEvent{}, fmt.Errorf("decode booking event: %w", err)
	}
	if event.BookingID == "" || event.Type == "" {
		return BookingEvent{}, errors.New("decode booking event: missing booking id or type")
	}
	return event, nil
}
