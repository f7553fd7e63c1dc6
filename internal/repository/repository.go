package repository

import (
	"context"
	"time"

	"livecart/internal/models"
)

// TriggerStore covers trigger-code allocation and release. The *Tx
// variants run the callback against a transaction-bound store;
// InSerializableTx is required around the find-unused-code/insert-tag
// sequence so concurrent allocations cannot pick the same code.
type TriggerStore interface {
	InTx(ctx context.Context, fn func(tx TriggerStore) error) error
	InSerializableTx(ctx context.Context, fn func(tx TriggerStore) error) error

	GetProductByID(ctx context.Context, id uint64) (*models.Product, error)
	GetProductTriggerCode(ctx context.Context, productID uint64) (string, error)
	FirstVariantSKU(ctx context.Context, productID uint64) (string, error)
	ListSystemTagCodes(ctx context.Context) (map[string]struct{}, error)
	ListSystemTagIDs(ctx context.Context) ([]uint64, error)
	ListTagsByIDs(ctx context.Context, ids []uint64) ([]models.Tag, error)
	DeleteTagsByIDs(ctx context.Context, ids []uint64) error
	CreateTag(ctx context.Context, item *models.Tag) error
	FindSmallestReleasedTrigger(ctx context.Context, letters []string) (*models.ReleasedTrigger, error)
	CreateReleasedTrigger(ctx context.Context, item *models.ReleasedTrigger) error
	DeleteReleasedTrigger(ctx context.Context, id uint64) error
}

// CatalogStore covers the product mirror and tag/variant reconciliation.
type CatalogStore interface {
	GetProductByShopifyID(ctx context.Context, shopifyID int64) (*models.Product, error)
	UpsertProduct(ctx context.Context, item *models.Product) error
	DeleteProductCascade(ctx context.Context, productID uint64) error
	GetSystemTag(ctx context.Context, productID uint64) (*models.Tag, error)
	DeleteTagsByProductID(ctx context.Context, productID uint64) error
	CreateTag(ctx context.Context, item *models.Tag) error
	UpsertVariant(ctx context.Context, item *models.Variant) error
	ListSystemTags(ctx context.Context, limit, offset int) ([]models.Tag, int64, error)
}

// MessageStore covers comment classification and private-message
// bookkeeping.
type MessageStore interface {
	GetProductByID(ctx context.Context, id uint64) (*models.Product, error)
	GetCommentByID(ctx context.Context, id uint64) (*models.Comment, error)
	GetCommentByFacebookID(ctx context.Context, facebookID string) (*models.Comment, error)
	HasPrivateMessage(ctx context.Context, commentID uint64) (bool, error)
	IsReplyToPage(ctx context.Context, parentFacebookID string) (bool, error)
	GetPostByFacebookID(ctx context.Context, facebookID string) (*models.Post, error)
	FindProductsByTagNames(ctx context.Context, names []string, limit int) ([]models.Product, error)
	CreatePrivateMessage(ctx context.Context, item *models.PrivateMessage) error
}

// FeedStore covers post/comment webhook ingestion and the background
// sweeps.
type FeedStore interface {
	UpsertComment(ctx context.Context, item *models.Comment) error
	DeleteCommentByFacebookID(ctx context.Context, facebookID string) error
	UpsertPost(ctx context.Context, item *models.Post) error
	ListLivePosts(ctx context.Context) ([]models.Post, error)
	SetPostLive(ctx context.Context, postID uint64, live bool) error
	DeleteCommentsBefore(ctx context.Context, before time.Time, batchSize int) (int64, error)
}

// Repository is the full store handed to wiring code; services accept
// the narrow interface they need.
type Repository interface {
	TriggerStore
	CatalogStore
	MessageStore
	FeedStore
}
