package messenger

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"livecart/internal/client/facebook"
	"livecart/internal/models"
	"livecart/internal/repository"
)

// MessagingClient is the slice of the Graph API client used for sends.
type MessagingClient interface {
	SendMessage(ctx context.Context, payload any) (*facebook.SendMessageResponse, error)
}

// Sender delivers a payload and records the PrivateMessage row. The
// unique index on private_messages.comment_id makes a second send for
// the same comment fail here, which is the at-most-once guard.
type Sender struct {
	Repo     repository.MessageStore
	Facebook MessagingClient
	Logger   *zap.Logger
}

func (s *Sender) Send(ctx context.Context, comment *models.Comment, payload Payload) error {
	resp, err := s.Facebook.SendMessage(ctx, payload)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	err = s.Repo.CreatePrivateMessage(ctx, &models.PrivateMessage{
		CommentID:   comment.ID,
		PageID:      comment.PageID(),
		RecipientID: resp.RecipientID,
		MessageID:   resp.MessageID,
		Message:     datatypes.JSON(raw),
	})
	if err != nil {
		return err
	}

	s.Logger.Info("private message sent",
		zap.Uint64("comment_id", comment.ID),
		zap.String("message_id", resp.MessageID))
	return nil
}
