package messenger

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"livecart/internal/models"
	"livecart/internal/repository"
)

// User identifies the person a reservation flow acts for.
type User struct {
	Name       string
	CustomerID int64
	Recipient  Recipient
}

// Reserver runs cart-side actions and reports the outcome back over
// Messenger.
type Reserver struct {
	Repo    repository.MessageStore
	Cart    CartClient
	Builder *Builder
	Sender  *Sender
	Logger  *zap.Logger
}

// Reserve attempts to reserve every referenced product. Products whose
// reservation fails and that carry a wait-list tag are redirected to a
// wait-list offer instead of the outcome carousel; when everything was
// redirected no carousel is sent. Input order is preserved.
func (r *Reserver) Reserve(ctx context.Context, user User, products []models.Product, comment *models.Comment) error {
	var outcomes []Outcome
	for i := range products {
		product := &products[i]
		resp, err := r.Cart.ReserveProduct(ctx, user.CustomerID, product.ShopifyID)
		if err != nil {
			return err
		}
		r.Logger.Info("reservation response",
			zap.Uint64("product_id", product.ID),
			zap.Bool("refused", resp.Error),
			zap.String("message", resp.Message))

		if resp.Error && hasWaitListTag(product) {
			err := r.Sender.Send(ctx, comment, r.Builder.WaitlistOffer(user.Recipient, product, comment.ID))
			if err != nil {
				r.Logger.Error("send waitlist offer",
					zap.Uint64("comment_id", comment.ID),
					zap.Error(err))
			}
			continue
		}

		subtitle := ""
		if resp.Error {
			subtitle = resp.Message
			if subtitle == "" {
				subtitle = subtitleReserveFailed
			}
		}
		outcomes = append(outcomes, Outcome{Product: *product, Subtitle: subtitle})
	}

	if len(outcomes) == 0 {
		return nil
	}
	return r.Sender.Send(ctx, comment, r.Builder.ReserveOutcome(user.Recipient, outcomes))
}

// AddToWaitList queues the product for the user and confirms over
// Messenger.
func (r *Reserver) AddToWaitList(ctx context.Context, user User, product *models.Product, comment *models.Comment) error {
	resp, err := r.Cart.AddProductToWaitList(ctx, user.CustomerID, product.ShopifyID)
	if err != nil {
		return err
	}
	r.Logger.Info("added product to waitlist",
		zap.Uint64("product_id", product.ID),
		zap.String("message", resp.Message))

	subtitle := ""
	if resp.Error || resp.IsWaitList {
		subtitle = resp.Message
	}
	outcome := Outcome{Product: *product, Subtitle: subtitle}
	return r.Sender.Send(ctx, comment, r.Builder.ReserveOutcome(user.Recipient, []Outcome{outcome}))
}

func hasWaitListTag(product *models.Product) bool {
	for _, tag := range product.Tags {
		if strings.Contains(strings.ToLower(tag.Name), "wait") {
			return true
		}
	}
	return false
}
