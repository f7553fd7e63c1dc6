package feed

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"livecart/internal/client/facebook"
	"livecart/internal/models"
	"livecart/internal/repository"
)

// Graph API stories carrying the live-state heuristics.
const (
	storyLiveNow = "is live now"
	storyWasLive = "was live"
)

// publishedPostLookback is how many recent posts are scanned to match
// an incoming post webhook.
const publishedPostLookback = 5

// GraphClient is the slice of the Graph API client feed ingestion uses.
type GraphClient interface {
	GetPagePublishedPosts(ctx context.Context, limit int) ([]facebook.PublishedPost, error)
	GetPostData(ctx context.Context, postID string) (*facebook.PostData, error)
	GetPostAttachments(ctx context.Context, postID string) ([]facebook.Attachment, error)
}

// Service ingests page feed activity and keeps live state current.
// OnLiveUpdate, when set, is called after a post goes live or stops
// being live.
type Service struct {
	Repo         repository.FeedStore
	Facebook     GraphClient
	Logger       *zap.Logger
	OnLiveUpdate func(post *models.Post)
}

// ProcessPost mirrors a new page post. The post must appear among the
// page's most recent published posts; its story decides whether it is a
// live stream.
func (s *Service) ProcessPost(ctx context.Context, postID, itemType string, message *string) error {
	published, err := s.Facebook.GetPagePublishedPosts(ctx, publishedPostLookback)
	if err != nil {
		return err
	}

	for _, data := range published {
		if data.ID != postID {
			continue
		}

		isLive := strings.Contains(data.Story, storyLiveNow)
		postType := itemType
		if isLive {
			postType = "live"
		}

		post := &models.Post{
			FacebookID: postID,
			Message:    message,
			PostType:   postType,
			IsLive:     isLive,
		}
		if err := s.Repo.UpsertPost(ctx, post); err != nil {
			return err
		}
		s.Logger.Info("post mirrored",
			zap.String("post_id", postID),
			zap.String("post_type", postType),
			zap.Bool("is_live", isLive))

		if err := s.ManageAttachments(ctx, postID); err != nil {
			s.Logger.Error("mirror post attachments",
				zap.String("post_id", postID),
				zap.Error(err))
		}

		if isLive {
			s.Logger.Info("live stream started", zap.String("post_id", postID))
			if s.OnLiveUpdate != nil {
				s.OnLiveUpdate(post)
			}
		}
		return nil
	}

	s.Logger.Info("post not among recent published posts, skipping",
		zap.String("post_id", postID))
	return nil
}

// ManageAttachments mirrors an album post's sub-attachments as extra
// Post rows so comments on individual photos resolve to a post.
func (s *Service) ManageAttachments(ctx context.Context, postID string) error {
	attachments, err := s.Facebook.GetPostAttachments(ctx, postID)
	if err != nil {
		return err
	}
	if len(attachments) == 0 {
		s.Logger.Info("no attachments found for post", zap.String("post_id", postID))
		return nil
	}

	pageID, _, _ := strings.Cut(postID, "_")
	for _, sub := range attachments[0].Subattachments.Data {
		if sub.Target.ID == "" {
			continue
		}
		var message *string
		if sub.Description != "" {
			d := sub.Description
			message = &d
		}
		post := &models.Post{
			FacebookID: pageID + "_" + sub.Target.ID,
			Message:    message,
			PostType:   sub.Type,
			IsLive:     false,
		}
		if err := s.Repo.UpsertPost(ctx, post); err != nil {
			return err
		}
	}
	s.Logger.Info("post attachments mirrored", zap.String("post_id", postID))
	return nil
}

// UpdateLiveStatuses re-checks every live post against the Graph API.
// A post whose story says it "was live", or whose check fails, is
// demoted; one bad post never stops the sweep.
func (s *Service) UpdateLiveStatuses(ctx context.Context) error {
	posts, err := s.Repo.ListLivePosts(ctx)
	if err != nil {
		return err
	}

	for i := range posts {
		post := &posts[i]
		data, err := s.Facebook.GetPostData(ctx, post.FacebookID)
		if err != nil {
			s.Logger.Error("failed to check live post, demoting",
				zap.String("post_id", post.FacebookID),
				zap.Error(err))
			if err := s.Repo.SetPostLive(ctx, post.ID, false); err != nil {
				s.Logger.Error("demote live post", zap.Uint64("id", post.ID), zap.Error(err))
			}
			continue
		}
		if !strings.Contains(data.Story, storyWasLive) {
			continue
		}
		if err := s.Repo.SetPostLive(ctx, post.ID, false); err != nil {
			s.Logger.Error("demote live post", zap.Uint64("id", post.ID), zap.Error(err))
			continue
		}
		s.Logger.Info("live stream ended", zap.String("post_id", post.FacebookID))
		post.IsLive = false
		if s.OnLiveUpdate != nil {
			s.OnLiveUpdate(post)
		}
	}
	return nil
}
