package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livecart/internal/events"
	"livecart/internal/feed"
	"livecart/internal/messenger"
)

// FacebookWebhookHandler receives page feed and messaging events. The
// webhook is acked immediately; everything slow runs on the dispatcher.
type FacebookWebhookHandler struct {
	Comments    *feed.CommentIngestor
	Posts       *feed.Service
	Coordinator *messenger.Coordinator
	Dispatcher  *events.Dispatcher
	VerifyToken string
	Logger      *zap.Logger
}

func (h *FacebookWebhookHandler) Register(r *gin.Engine) {
	r.GET("/api/facebook/webhook", h.verify)
	r.POST("/api/facebook/webhook", h.handle)
}

// verify answers the subscription handshake.
func (h *FacebookWebhookHandler) verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")
	if mode == "subscribe" && token == h.VerifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.String(http.StatusForbidden, "Forbidden")
}

type facebookWebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Messaging []struct {
			Postback *struct {
				Payload string `json:"payload"`
			} `json:"postback"`
		} `json:"messaging"`
		Changes []facebookChange `json:"changes"`
	} `json:"entry"`
}

type facebookChange struct {
	Field string `json:"field"`
	Value struct {
		Item        string `json:"item"`
		Verb        string `json:"verb"`
		CommentID   string `json:"comment_id"`
		PostID      string `json:"post_id"`
		ParentID    string `json:"parent_id"`
		Message     string `json:"message"`
		CreatedTime int64  `json:"created_time"`
		From        struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"from"`
		Post struct {
			PermalinkURL string `json:"permalink_url"`
		} `json:"post"`
	} `json:"value"`
}

func (h *FacebookWebhookHandler) handle(c *gin.Context) {
	var payload facebookWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.Logger.Debug("undecodable facebook webhook", zap.Error(err))
		c.String(http.StatusOK, "Ignored")
		return
	}
	if payload.Object != "page" {
		h.Logger.Debug("webhook object is not page", zap.String("object", payload.Object))
		c.String(http.StatusOK, "Ignored")
		return
	}

	ctx := c.Request.Context()
	for _, entry := range payload.Entry {
		for _, msg := range entry.Messaging {
			if msg.Postback == nil {
				continue
			}
			raw := msg.Postback.Payload
			h.Dispatcher.Dispatch("handle-postback", func(ctx context.Context) error {
				return h.Coordinator.HandlePostback(ctx, raw)
			})
		}
		for _, change := range entry.Changes {
			h.handleChange(ctx, change)
		}
	}
	c.String(http.StatusOK, "EVENT_RECEIVED")
}

func (h *FacebookWebhookHandler) handleChange(ctx context.Context, change facebookChange) {
	switch change.Value.Item {
	case "comment":
		err := h.Comments.HandleChange(ctx, feed.CommentChange{
			CommentID: change.Value.CommentID,
			PostID:    change.Value.PostID,
			ParentID:  change.Value.ParentID,
			PostType:  change.Field,
			PostLink:  change.Value.Post.PermalinkURL,
			Message:   change.Value.Message,
			FromID:    change.Value.From.ID,
			FromName:  change.Value.From.Name,
			Verb:      change.Value.Verb,
			CreatedAt: time.Unix(change.Value.CreatedTime, 0).UTC(),
		})
		if err != nil {
			h.Logger.Error("ingest comment webhook",
				zap.String("comment_id", change.Value.CommentID),
				zap.Error(err))
		}
	case "status", "photo", "video":
		if change.Value.Item != "status" {
			return
		}
		postID := change.Value.PostID
		itemType := change.Value.Item
		var message *string
		if change.Value.Message != "" {
			m := change.Value.Message
			message = &m
		}
		h.Dispatcher.Dispatch("process-post", func(ctx context.Context) error {
			return h.Posts.ProcessPost(ctx, postID, itemType, message)
		})
	default:
		h.Logger.Info("unhandled webhook item", zap.String("item", change.Value.Item))
	}
}
