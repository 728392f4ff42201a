package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/sirupsen/logrus"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers booking notifications. Delivery is a structured log line;
// the payment gateway and mail relay live outside this service.
type Sender struct {
	logger logrus.FieldLogger
}

func NewSender(logger logrus.FieldLogger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		s.logger.WithField("booking_id", event.BookingID).Warn("booking has no contact email, notification skipped")
		return nil
	}
	msg := Compose(event)
	s.logger.WithFields(logrus.Fields{
		"to":         msg.To,
		"subject":    msg.Subject,
		"booking_id": event.BookingID,
		"event_id":   event.EventID,
	}).Info("notification sent")
	return nil
}

func Compose(event kafka.BookingEvent) Message {
	msg := Message{To: event.Email}
	switch event.Type {
	case "booking_created":
		msg.Subject = fmt.Sprintf("Booking %s received", event.BookingID)
		msg.Body = fmt.Sprintf("Dear %s, your booking %s is registered. Amount due: %d.", event.ContactName, event.BookingID, event.TotalAmount)
	case "booking_status_changed":
		msg.Subject = fmt.Sprintf("Booking %s is now %s", event.BookingID, event.Status)
		msg.Body = fmt.Sprintf("Dear %s, the payment status of booking %s changed from %s to %s.", event.ContactName, event.BookingID, event.PreviousStatus, event.Status)
	default:
		msg.Subject = fmt.Sprintf("Booking %s update", event.BookingID)
		msg.Body = fmt.Sprintf("Booking %s: %s.", event.BookingID, event.Type)
	}
	return msg
}
