package mailSender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rentcard_service/internal/lib/logger/sl"
	"rentcard_service/internal/models"
)

var (
	ErrSMSDisabled     = errors.New("sms delivery is disabled")
	ErrMissingAddress  = errors.New("message has no recipient")
	ErrMalformedPacket = errors.New("malformed notification message")
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, text string) error
}

// Dispatcher routes queued notifications to the e-mail or SMS sender.
type Dispatcher struct {
	log    *slog.Logger
	mailer EmailSender
	texter SMSSender
}

// NewDispatcher builds a dispatcher; a nil texter disables SMS.
func NewDispatcher(log *slog.Logger, mailer EmailSender, texter SMSSender) *Dispatcher {
	return &Dispatcher{log: log, mailer: mailer, texter: texter}
}

func (d *Dispatcher) Handle(ctx context.Context, body []byte) error {
	const op = "mailSender.Dispatcher.Handle"

	log := d.log.With(slog.String("op", op))

	var msg models.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Error("failed to unmarshal message", sl.Err(err))
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedPacket, err)
	}

	log = log.With(
		slog.String("purpose", msg.Purpose),
		slog.String("channel", msg.Channel),
	)

	text := compose(msg)

	var err error

	switch msg.Channel {
	case models.ChannelSMS:
		switch {
		case d.texter == nil:
			err = ErrSMSDisabled
		case msg.Phone == "":
			err = ErrMissingAddress
		default:
			err = d.texter.SendSMS(ctx, msg.Phone, text)
		}
	default:
		if msg.Email == "" {
			err = ErrMissingAddress
		} else {
			err = d.mailer.Send(ctx, msg.Email, msg.Subject, text)
		}
	}

	if err != nil {
		log.Error("failed to send message", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("message sent successfully")

	return nil
}

func compose(msg models.Message) string {
	if msg.Link == "" {
		return msg.Body
	}

	if strings.TrimSpace(msg.Body) == "" {
		return msg.Link
	}

	return msg.Body + "\n\n" + msg.Link
}
