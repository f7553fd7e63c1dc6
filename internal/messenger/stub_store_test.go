package messenger

import (
	"context"

	"livecart/internal/client/facebook"
	"livecart/internal/client/smartcart"
	"livecart/internal/models"
)

// stubMessageStore is a test-only in-memory repository.MessageStore.
type stubMessageStore struct {
	products      map[uint64]*models.Product
	comments      map[uint64]*models.Comment
	byFacebookID  map[string]*models.Comment
	posts         map[string]*models.Post
	alreadySent   map[uint64]bool
	pageComments  map[string]bool
	productsByTag map[string][]models.Product

	sentMessages []models.PrivateMessage
}

func newStubMessageStore() *stubMessageStore {
	return &stubMessageStore{
		products:      map[uint64]*models.Product{},
		comments:      map[uint64]*models.Comment{},
		byFacebookID:  map[string]*models.Comment{},
		posts:         map[string]*models.Post{},
		alreadySent:   map[uint64]bool{},
		pageComments:  map[string]bool{},
		productsByTag: map[string][]models.Product{},
	}
}

func (s *stubMessageStore) GetProductByID(ctx context.Context, id uint64) (*models.Product, error) {
	return s.products[id], nil
}

func (s *stubMessageStore) GetCommentByID(ctx context.Context, id uint64) (*models.Comment, error) {
	return s.comments[id], nil
}

func (s *stubMessageStore) GetCommentByFacebookID(ctx context.Context, facebookID string) (*models.Comment, error) {
	return s.byFacebookID[facebookID], nil
}

func (s *stubMessageStore) HasPrivateMessage(ctx context.Context, commentID uint64) (bool, error) {
	return s.alreadySent[commentID], nil
}

func (s *stubMessageStore) IsReplyToPage(ctx context.Context, parentFacebookID string) (bool, error) {
	return s.pageComments[parentFacebookID], nil
}

func (s *stubMessageStore) GetPostByFacebookID(ctx context.Context, facebookID string) (*models.Post, error) {
	return s.posts[facebookID], nil
}

func (s *stubMessageStore) FindProductsByTagNames(ctx context.Context, names []string, limit int) ([]models.Product, error) {
	var out []models.Product
	seen := map[uint64]struct{}{}
	for _, name := range names {
		for _, product := range s.productsByTag[name] {
			if _, dup := seen[product.ID]; dup {
				continue
			}
			seen[product.ID] = struct{}{}
			out = append(out, product)
			if len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (s *stubMessageStore) CreatePrivateMessage(ctx context.Context, item *models.PrivateMessage) error {
	s.sentMessages = append(s.sentMessages, *item)
	return nil
}

// stubCart fakes the cart service.
type stubCart struct {
	customers map[string]*smartcart.Customer

	reserveResult  *smartcart.ReserveResult
	reserveResults map[int64]*smartcart.ReserveResult
	reserved       []int64

	waitListResult *smartcart.WaitListResult
	waitListed     []int64
}

func (s *stubCart) Customer(ctx context.Context, name string) (*smartcart.Customer, error) {
	return s.customers[name], nil
}

func (s *stubCart) ReserveProduct(ctx context.Context, customerID, productID int64) (*smartcart.ReserveResult, error) {
	s.reserved = append(s.reserved, productID)
	if r, ok := s.reserveResults[productID]; ok {
		return r, nil
	}
	if s.reserveResult != nil {
		return s.reserveResult, nil
	}
	return &smartcart.ReserveResult{}, nil
}

func (s *stubCart) AddProductToWaitList(ctx context.Context, customerID, productID int64) (*smartcart.WaitListResult, error) {
	s.waitListed = append(s.waitListed, productID)
	if s.waitListResult != nil {
		return s.waitListResult, nil
	}
	return &smartcart.WaitListResult{}, nil
}

// stubGraph records send payloads and serves post data.
type stubGraph struct {
	posts map[string]*facebook.PostData
	sent  []Payload
}

func (s *stubGraph) SendMessage(ctx context.Context, payload any) (*facebook.SendMessageResponse, error) {
	s.sent = append(s.sent, payload.(Payload))
	return &facebook.SendMessageResponse{RecipientID: "r-1", MessageID: "m-1"}, nil
}

func (s *stubGraph) GetPostData(ctx context.Context, postID string) (*facebook.PostData, error) {
	if data, ok := s.posts[postID]; ok {
		return data, nil
	}
	return &facebook.PostData{ID: postID}, nil
}
