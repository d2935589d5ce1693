package communications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rentcard_service/internal/lib/logger/sl"
	"rentcard_service/internal/metrics"
	"rentcard_service/internal/models"
)

var (
	ErrChannelNotAllowed = errors.New("contact does not accept messages on this channel")
	ErrMissingAddress    = errors.New("contact has no address for this channel")
	ErrEmptyMessage      = errors.New("message body is empty")
	ErrDeliveryFailed    = errors.New("message delivery failed")
)

type ContactProvider interface {
	Get(ctx context.Context, landlordID, id int64) (models.RecipientContact, error)
	Use(ctx context.Context, landlordID, id int64) (models.RecipientContact, error)
}

type TemplateProvider interface {
	Get(ctx context.Context, landlordID, id int64) (models.CommunicationTemplate, error)
	Use(ctx context.Context, landlordID, id int64) (models.CommunicationTemplate, error)
}

type LogSaver interface {
	Create(ctx context.Context, landlordID int64, rec models.CommunicationLog) (models.CommunicationLog, error)
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type SendRequest struct {
	ContactID  int64
	TemplateID *int64
	Channel    string
	Subject    string
	Body       string
}

type Communications struct {
	log        *slog.Logger
	contacts   ContactProvider
	templates  TemplateProvider
	logs       LogSaver
	publisher  Publisher
	smsEnabled bool
}

func New(
	log *slog.Logger,
	contacts ContactProvider,
	templates TemplateProvider,
	logs LogSaver,
	publisher Publisher,
	smsEnabled bool,
) *Communications {
	return &Communications{
		log:        log,
		contacts:   contacts,
		templates:  templates,
		logs:       logs,
		publisher:  publisher,
		smsEnabled: smsEnabled,
	}
}

// Send queues a message to one of the landlord's contacts, honouring the
// contact's channel preferences, and records the attempt. A log status of
// "sent" means the message was accepted by the notification queue. SMS is
// rejected with ErrChannelNotAllowed unless the deployment has it enabled.
func (c *Communications) Send(ctx context.Context, landlordID int64, req SendRequest) (models.CommunicationLog, error) {
	const op = "communications.Send"

	log := c.log.With(
		slog.String("op", op),
		slog.Int64("landlord_id", landlordID),
		slog.Int64("contact_id", req.ContactID),
		slog.String("channel", req.Channel),
	)

	if req.Channel == models.ChannelSMS && !c.smsEnabled {
		log.Info("sms channel is disabled")
		return models.CommunicationLog{}, ErrChannelNotAllowed
	}

	contact, err := c.contacts.Get(ctx, landlordID, req.ContactID)
	if err != nil {
		return models.CommunicationLog{}, err
	}

	msg := models.Message{
		Purpose: models.PurposeCommunication,
		Channel: req.Channel,
	}

	switch req.Channel {
	case models.ChannelEmail:
		if !contact.ReceiveEmail {
			return models.CommunicationLog{}, ErrChannelNotAllowed
		}
		if contact.Email == "" {
			return models.CommunicationLog{}, ErrMissingAddress
		}
		msg.Email = contact.Email
	case models.ChannelSMS:
		if !contact.ReceiveSMS {
			return models.CommunicationLog{}, ErrChannelNotAllowed
		}
		if contact.Phone == "" {
			return models.CommunicationLog{}, ErrMissingAddress
		}
		msg.Phone = contact.Phone
	default:
		return models.CommunicationLog{}, ErrChannelNotAllowed
	}

	subject, body := req.Subject, req.Body

	if req.TemplateID != nil {
		tmpl, err := c.templates.Get(ctx, landlordID, *req.TemplateID)
		if err != nil {
			return models.CommunicationLog{}, err
		}

		if subject == "" {
			subject = tmpl.Subject
		}
		if body == "" {
			body = tmpl.Body
		}
	}

	msg.Subject = Render(subject, contact)
	msg.Body = Render(body, contact)

	if strings.TrimSpace(msg.Body) == "" {
		return models.CommunicationLog{}, ErrEmptyMessage
	}

	entry := models.CommunicationLog{
		ContactID:  &contact.ID,
		TemplateID: req.TemplateID,
		Channel:    req.Channel,
		Subject:    msg.Subject,
		Body:       msg.Body,
	}

	if err := c.publisher.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish message", sl.Err(err))

		entry.Status = models.StatusFailed
		metrics.Communications.WithLabelValues(req.Channel, models.StatusFailed).Inc()

		if _, saveErr := c.logs.Create(ctx, landlordID, entry); saveErr != nil {
			log.Error("failed to save communication log", sl.Err(saveErr))
		}

		return models.CommunicationLog{}, fmt.Errorf("%s: %w: %v", op, ErrDeliveryFailed, err)
	}

	now := time.Now()
	entry.Status = models.StatusSent
	entry.SentAt = &now
	metrics.Communications.WithLabelValues(req.Channel, models.StatusSent).Inc()

	if _, err := c.contacts.Use(ctx, landlordID, contact.ID); err != nil {
		log.Warn("failed to increment contact usage", sl.Err(err))
	}

	if req.TemplateID != nil {
		if _, err := c.templates.Use(ctx, landlordID, *req.TemplateID); err != nil {
			log.Warn("failed to increment template usage", sl.Err(err))
		}
	}

	saved, err := c.logs.Create(ctx, landlordID, entry)
	if err != nil {
		log.Error("failed to save communication log", sl.Err(err))
		return models.CommunicationLog{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("message sent", slog.Int64("log_id", saved.ID))

	return saved, nil
}

// Render fills {{name}}, {{email}} and {{company}} from the contact.
func Render(text string, contact models.RecipientContact) string {
	return strings.NewReplacer(
		"{{name}}", contact.Name,
		"{{email}}", contact.Email,
		"{{company}}", contact.Company,
	).Replace(text)
}
