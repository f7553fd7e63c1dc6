package messenger

import (
	"context"

	"go.uber.org/zap"

	"livecart/internal/client/facebook"
	"livecart/internal/client/smartcart"
	"livecart/internal/models"
	"livecart/internal/repository"
)

// CartClient is the slice of the cart service the messaging flows use.
type CartClient interface {
	Customer(ctx context.Context, name string) (*smartcart.Customer, error)
	ReserveProduct(ctx context.Context, customerID, productID int64) (*smartcart.ReserveResult, error)
	AddProductToWaitList(ctx context.Context, customerID, productID int64) (*smartcart.WaitListResult, error)
}

// PostFetcher resolves post text for comments whose post is not
// mirrored locally.
type PostFetcher interface {
	GetPostData(ctx context.Context, postID string) (*facebook.PostData, error)
}

// Coordinator classifies an ingested comment and routes it to one of
// the message flows. Every early exit is a logged no-op; the webhook
// has already been acked by the time this runs.
type Coordinator struct {
	Repo     repository.MessageStore
	Cart     CartClient
	Posts    PostFetcher
	Builder  *Builder
	Sender   *Sender
	Reserver *Reserver
	Logger   *zap.Logger
}

// Coordinate decides whether the comment earns a private reply and
// sends it.
func (c *Coordinator) Coordinate(ctx context.Context, commentID uint64) error {
	comment, err := c.Repo.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		c.Logger.Warn("comment not found", zap.Uint64("comment_id", commentID))
		return nil
	}

	sent, err := c.Repo.HasPrivateMessage(ctx, comment.ID)
	if err != nil {
		return err
	}
	if sent {
		c.Logger.Info("private message already sent for this comment",
			zap.Uint64("comment_id", comment.ID))
		return nil
	}
	if comment.IsFromPage {
		c.Logger.Info("comment is from the page itself, not sending dm",
			zap.Uint64("comment_id", comment.ID),
			zap.String("post_id", comment.PostID))
		return nil
	}

	wantsReserve := comment.MessageContains("reserve")
	hasIntent := wantsReserve || comment.MessageContains("sold")

	var products []models.Product
	referencesInParent := false
	if hasIntent {
		replyToPage, err := c.Repo.IsReplyToPage(ctx, comment.ParentID)
		if err != nil {
			return err
		}
		if replyToPage {
			referencesInParent = true
		} else {
			text, err := c.postText(ctx, comment.PostID)
			if err != nil {
				return err
			}
			products, err = c.productsInText(ctx, text)
			if err != nil {
				return err
			}
		}
	}

	if len(products) == 0 {
		text := comment.CleanMessage()
		if referencesInParent {
			parent, err := c.Repo.GetCommentByFacebookID(ctx, comment.ParentID)
			if err != nil {
				return err
			}
			if parent != nil {
				text = parent.CleanMessage()
			}
		}
		products, err = c.productsInText(ctx, text)
		if err != nil {
			return err
		}
	}

	if len(products) == 0 {
		c.Logger.Info("comment does not reference any products",
			zap.Uint64("comment_id", comment.ID),
			zap.String("post_id", comment.PostID))
		return nil
	}

	customer, err := c.Cart.Customer(ctx, comment.Commenter)
	if err != nil {
		return err
	}
	recipient := CommenterRecipient(comment.FacebookID)

	switch {
	case customer != nil && wantsReserve:
		user := User{Name: comment.Commenter, CustomerID: customer.ID, Recipient: recipient}
		return c.Reserver.Reserve(ctx, user, products, comment)
	case customer != nil:
		return c.Sender.Send(ctx, comment, c.Builder.PromptReserve(recipient, products, comment.ID))
	case wantsReserve:
		return c.Sender.Send(ctx, comment, c.Builder.PromptAuthorizeReserve(recipient, products, comment.Commenter))
	default:
		return c.Sender.Send(ctx, comment, c.Builder.Browse(recipient, products))
	}
}

// postText prefers the mirrored post, falling back to a live Graph API
// fetch.
func (c *Coordinator) postText(ctx context.Context, postID string) (string, error) {
	post, err := c.Repo.GetPostByFacebookID(ctx, postID)
	if err != nil {
		return "", err
	}
	if post != nil {
		if post.Message != nil {
			return *post.Message, nil
		}
		return "", nil
	}
	data, err := c.Posts.GetPostData(ctx, postID)
	if err != nil {
		return "", err
	}
	return data.Message, nil
}
