package feed

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"livecart/internal/models"
	"livecart/internal/repository"
)

// CommentChange is one comment entry from the feed webhook.
type CommentChange struct {
	CommentID string
	PostID    string
	ParentID  string
	PostType  string
	PostLink  string
	Message   string
	FromID    string
	FromName  string
	Verb      string
	CreatedAt time.Time
}

// CommentIngestor upserts webhook comments. OnComment, when set, fires
// after a comment is stored; removal webhooks delete instead.
type CommentIngestor struct {
	Repo      repository.FeedStore
	Logger    *zap.Logger
	OnComment func(comment *models.Comment)
}

func (ci *CommentIngestor) HandleChange(ctx context.Context, change CommentChange) error {
	ci.Logger.Info("handling comment webhook",
		zap.String("comment_id", change.CommentID),
		zap.String("post_id", change.PostID),
		zap.String("verb", change.Verb))

	if change.Verb == "remove" {
		err := ci.Repo.DeleteCommentByFacebookID(ctx, change.CommentID)
		if err != nil {
			ci.Logger.Info("comment not found or not deletable",
				zap.String("comment_id", change.CommentID),
				zap.Error(err))
			return nil
		}
		ci.Logger.Info("comment deleted", zap.String("comment_id", change.CommentID))
		return nil
	}

	pageID, _, _ := strings.Cut(change.PostID, "_")
	comment := &models.Comment{
		FacebookID:        change.CommentID,
		FacebookUserID:    change.FromID,
		Commenter:         change.FromName,
		PostID:            change.PostID,
		ParentID:          change.ParentID,
		PostType:          change.PostType,
		PostLink:          change.PostLink,
		Message:           change.Message,
		FacebookCreatedAt: change.CreatedAt,
		IsFromPage:        change.FromID == pageID,
	}
	if err := ci.Repo.UpsertComment(ctx, comment); err != nil {
		ci.Logger.Error("store comment",
			zap.String("comment_id", change.CommentID),
			zap.Error(err))
		return err
	}

	if ci.OnComment != nil {
		ci.OnComment(comment)
	}
	return nil
}
