package messenger

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"livecart/internal/models"
)

// HandlePostback reacts to a template button press. Unknown actions and
// missing referents are logged no-ops.
func (c *Coordinator) HandlePostback(ctx context.Context, rawPayload string) error {
	var payload ButtonPayload
	if err := json.Unmarshal([]byte(rawPayload), &payload); err != nil {
		c.Logger.Debug("undecodable postback payload", zap.Error(err))
		return nil
	}
	if payload.Action == "" {
		c.Logger.Debug("postback payload has no action", zap.String("payload", rawPayload))
		return nil
	}

	comment, err := c.Repo.GetCommentByID(ctx, payload.CommentID)
	if err != nil {
		return err
	}
	product, err := c.Repo.GetProductByID(ctx, payload.ProductID)
	if err != nil {
		return err
	}
	if comment == nil || product == nil {
		c.Logger.Warn("missing data for postback",
			zap.Uint64("comment_id", payload.CommentID),
			zap.Uint64("product_id", payload.ProductID))
		return nil
	}

	customer, err := c.Cart.Customer(ctx, comment.Commenter)
	if err != nil {
		return err
	}
	if customer == nil {
		c.Logger.Info("postback from unknown customer, prompting authorization",
			zap.String("commenter", comment.Commenter))
		// Sent without a PrivateMessage row; the comment already has one.
		payload := c.Builder.Authorize(UserRecipient(comment.FacebookUserID), comment.Commenter)
		if _, err := c.Sender.Facebook.SendMessage(ctx, payload); err != nil {
			c.Logger.Error("send authorization prompt",
				zap.Uint64("comment_id", comment.ID),
				zap.Error(err))
		}
		return nil
	}

	user := User{
		Name:       comment.Commenter,
		CustomerID: customer.ID,
		Recipient:  UserRecipient(comment.FacebookUserID),
	}

	switch payload.Action {
	case ActionAddToWaitList:
		return c.Reserver.AddToWaitList(ctx, user, product, comment)
	case ActionReserveProduct:
		return c.Reserver.Reserve(ctx, user, []models.Product{*product}, comment)
	default:
		c.Logger.Debug("unknown postback action", zap.String("action", payload.Action))
		return nil
	}
}
