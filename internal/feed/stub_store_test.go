package feed

import (
	"context"
	"errors"
	"time"

	"livecart/internal/client/facebook"
	"livecart/internal/models"
)

// stubFeedStore is a test-only in-memory repository.FeedStore.
type stubFeedStore struct {
	posts    map[string]*models.Post
	comments map[string]*models.Comment
	nextID   uint64

	deletedComments []string
	retentionRuns   []int64
}

func newStubFeedStore() *stubFeedStore {
	return &stubFeedStore{
		posts:    map[string]*models.Post{},
		comments: map[string]*models.Comment{},
	}
}

func (s *stubFeedStore) UpsertComment(ctx context.Context, item *models.Comment) error {
	if existing, ok := s.comments[item.FacebookID]; ok {
		item.ID = existing.ID
	} else {
		s.nextID++
		item.ID = s.nextID
	}
	s.comments[item.FacebookID] = item
	return nil
}

func (s *stubFeedStore) DeleteCommentByFacebookID(ctx context.Context, facebookID string) error {
	if _, ok := s.comments[facebookID]; !ok {
		return errors.New("comment not found")
	}
	delete(s.comments, facebookID)
	s.deletedComments = append(s.deletedComments, facebookID)
	return nil
}

func (s *stubFeedStore) UpsertPost(ctx context.Context, item *models.Post) error {
	if existing, ok := s.posts[item.FacebookID]; ok {
		item.ID = existing.ID
	} else {
		s.nextID++
		item.ID = s.nextID
	}
	s.posts[item.FacebookID] = item
	return nil
}

func (s *stubFeedStore) ListLivePosts(ctx context.Context) ([]models.Post, error) {
	var out []models.Post
	for _, post := range s.posts {
		if post.IsLive {
			out = append(out, *post)
		}
	}
	return out, nil
}

func (s *stubFeedStore) SetPostLive(ctx context.Context, postID uint64, live bool) error {
	for _, post := range s.posts {
		if post.ID == postID {
			post.IsLive = live
		}
	}
	return nil
}

func (s *stubFeedStore) DeleteCommentsBefore(ctx context.Context, before time.Time, batchSize int) (int64, error) {
	if len(s.retentionRuns) == 0 {
		return 0, nil
	}
	affected := s.retentionRuns[0]
	s.retentionRuns = s.retentionRuns[1:]
	return affected, nil
}

// stubFeedGraph serves canned Graph API feed data.
type stubFeedGraph struct {
	published   []facebook.PublishedPost
	postData    map[string]*facebook.PostData
	attachments []facebook.Attachment

	postDataErr map[string]error
}

func (s *stubFeedGraph) GetPagePublishedPosts(ctx context.Context, limit int) ([]facebook.PublishedPost, error) {
	if len(s.published) > limit {
		return s.published[:limit], nil
	}
	return s.published, nil
}

func (s *stubFeedGraph) GetPostData(ctx context.Context, postID string) (*facebook.PostData, error) {
	if err, ok := s.postDataErr[postID]; ok {
		return nil, err
	}
	if data, ok := s.postData[postID]; ok {
		return data, nil
	}
	return &facebook.PostData{ID: postID}, nil
}

func (s *stubFeedGraph) GetPostAttachments(ctx context.Context, postID string) ([]facebook.Attachment, error) {
	return s.attachments, nil
}
