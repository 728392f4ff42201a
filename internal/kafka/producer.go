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

// BookingEvent is published on every booking creation and payment status change.
type BookingEvent struct {
	EventID         string    `json:"event_id"`
	Type            string    `json:"type"`
	BookingID       string    `json:"booking_id"`
	Email           string    `json:"email"`
	ContactName     string    `json:"contact_name"`
	Status          string    `json:"status"`
	PreviousStatus  string    `json:"previous_status,omitempty"`
	TotalAmount     int64     `json:"total_amount"`
	DepartureFlight int64     `json:"departure_flight_id"`
	ReturnFlight    *int64    `json:"return_flight_id,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
	logger  logrus.FieldLogger
}

func NewProducer(brokers []string, logger logrus.FieldLogger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
		logger:  logger,
	}
}

// Publish writes payload as JSON. Messages with the same key land on the same
// partition, so events of one booking stay ordered.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("write message to %s: %w", topic, err)
	}

	p.logger.WithFields(logrus.Fields{"topic": topic, "key": key}).Debug("event published")
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and lists partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("connect to kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("read partitions: %w", err)
	}
	p.logger.WithField("partitions", len(partitions)).Debug("kafka reachable")
	return nil
}
