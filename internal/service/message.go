package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/Skotchmaster/headphones_shop/internal/logging"
	"github.com/Skotchmaster/headphones_shop/internal/models"
	"github.com/Skotchmaster/headphones_shop/internal/repo"
)

const (
	StatusUnread    = "UNREAD"
	StatusRead      = "READ"
	StatusResponded = "RESPONDED"
)

// rank orders the workflow. A message may move forward, skipping states, but
// never back.
var rank = map[string]int{
	StatusUnread:    0,
	StatusRead:      1,
	StatusResponded: 2,
}

func ValidStatus(s string) bool {
	_, ok := rank[s]
	return ok
}

var validate = validator.New()

type MessageService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
	Now    func() time.Time
}

func (s *MessageService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *MessageService) Submit(ctx context.Context, name, email, message string) (*models.ContactMessage, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	message = strings.TrimSpace(message)

	if email == "" || message == "" {
		return nil, validation("Email and message are required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, validation("Invalid email address")
	}

	msg := &models.ContactMessage{
		Name:        name,
		Email:       email,
		Message:     message,
		MessageDate: s.now(),
		Status:      StatusUnread,
	}
	if err := s.Repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicContact, strconv.FormatUint(uint64(msg.ID), 10), map[string]any{
		"type":      "message_received",
		"messageID": msg.ID,
		"email":     msg.Email,
	})
	return msg, nil
}

func (s *MessageService) List(ctx context.Context, status string) ([]models.ContactMessage, error) {
	status = strings.TrimSpace(status)
	if status != "" && !ValidStatus(status) {
		return nil, validation("Invalid status value")
	}
	return s.Repo.ListMessages(ctx, status)
}

func translateMessageErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound("Message not found")
	case errors.Is(err, repo.ErrStale):
		return conflict("Message was modified concurrently, please retry")
	}
	return err
}

// UpdateStatus moves a message forward. Setting the current status again is a
// no-op. Reaching RESPONDED this way stamps responded_at and leaves an empty
// response, so a RESPONDED message always carries both.
func (s *MessageService) UpdateStatus(ctx context.Context, id uint, status string) (*models.ContactMessage, error) {
	status = strings.TrimSpace(status)
	if !ValidStatus(status) {
		return nil, validation("Invalid status value")
	}
	if id == 0 {
		return nil, validation("Message ID is required")
	}

	now := s.now()
	msg, err := s.Repo.MutateMessage(ctx, id, func(m *models.ContactMessage) error {
		if rank[status] < rank[m.Status] {
			return validation("Invalid status transition")
		}
		if status == m.Status {
			return nil
		}
		m.Status = status
		if status == StatusResponded {
			if m.AdminResponse == nil {
				empty := ""
				m.AdminResponse = &empty
			}
			m.RespondedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, translateMessageErr(err)
	}
	return msg, nil
}

// Respond records the admin's answer and marks the message RESPONDED in the same
// transaction that read it. Delivery to the sender is handed to the contact
// event stream.
func (s *MessageService) Respond(ctx context.Context, id uint, response string) (*models.ContactMessage, error) {
	l := logging.FromContext(ctx).With("service", "messages")

	response = strings.TrimSpace(response)
	if response == "" {
		return nil, validation("Response is required")
	}
	if id == 0 {
		return nil, validation("Message ID is required")
	}

	now := s.now()
	msg, err := s.Repo.MutateMessage(ctx, id, func(m *models.ContactMessage) error {
		if m.Status == StatusResponded {
			return conflict("Message has already been responded to")
		}
		m.AdminResponse = &response
		m.RespondedAt = &now
		m.Status = StatusResponded
		return nil
	})
	if err != nil {
		return nil, translateMessageErr(err)
	}

	l.Info("response_notification_queued", "message_id", msg.ID, "email", msg.Email)
	publish(ctx, s.Events, TopicContact, strconv.FormatUint(uint64(msg.ID), 10), map[string]any{
		"type":      "message_responded",
		"messageID": msg.ID,
		"email":     msg.Email,
		"response":  response,
	})
	return msg, nil
}
