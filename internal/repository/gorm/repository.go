package gormrepository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"livecart/internal/models"
	"livecart/internal/repository"
)

// triggerCodePattern matches system trigger codes (letter + 3 digits).
const triggerCodePattern = "^[A-Z][0-9]{3}$"

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx repository.TriggerStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) InSerializableTx(ctx context.Context, fn func(tx repository.TriggerStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// --- trigger pool -----------------------------------------------------------

func (s *Store) GetProductByID(ctx context.Context, id uint64) (*models.Product, error) {
	var item models.Product
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Variants").
		First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetProductTriggerCode(ctx context.Context, productID uint64) (string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&models.Tag{}).
		Where("product_id = ?", productID).
		Where("name ~ ?", triggerCodePattern).
		Limit(1).
		Pluck("name", &names).Error
	if err != nil || len(names) == 0 {
		return "", err
	}
	return names[0], nil
}

func (s *Store) FirstVariantSKU(ctx context.Context, productID uint64) (string, error) {
	var skus []string
	err := s.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("product_id = ?", productID).
		Where("sku IS NOT NULL AND sku <> ''").
		Limit(1).
		Pluck("sku", &skus).Error
	if err != nil || len(skus) == 0 {
		return "", err
	}
	return skus[0], nil
}

func (s *Store) ListSystemTagCodes(ctx context.Context) (map[string]struct{}, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&models.Tag{}).
		Where("name ~ ?", triggerCodePattern).
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	codes := make(map[string]struct{}, len(names))
	for _, name := range names {
		codes[name] = struct{}{}
	}
	return codes, nil
}

func (s *Store) ListSystemTagIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).
		Model(&models.Tag{}).
		Where("is_system_tag = ?", true).
		Order("id asc").
		Pluck("id", &ids).Error
	return ids, err
}

func (s *Store) ListTagsByIDs(ctx context.Context, ids []uint64) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Tag
	err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	return items, err
}

func (s *Store) DeleteTagsByIDs(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.Tag{}).Error
}

func (s *Store) CreateTag(ctx context.Context, item *models.Tag) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) FindSmallestReleasedTrigger(ctx context.Context, letters []string) (*models.ReleasedTrigger, error) {
	if len(letters) == 0 {
		return nil, nil
	}
	pattern := "^[" + strings.Join(letters, "") + "][0-9]{3}$"
	var item models.ReleasedTrigger
	err := s.db.WithContext(ctx).
		Where("name ~ ?", pattern).
		Order("name asc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateReleasedTrigger(ctx context.Context, item *models.ReleasedTrigger) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) DeleteReleasedTrigger(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Delete(&models.ReleasedTrigger{}, id).Error
}

// --- catalog ----------------------------------------------------------------

func (s *Store) GetProductByShopifyID(ctx context.Context, shopifyID int64) (*models.Product, error) {
	var item models.Product
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Variants").
		Where("shopify_id = ?", shopifyID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertProduct(ctx context.Context, item *models.Product) error {
	var existing models.Product
	err := s.db.WithContext(ctx).
		Where("shopify_id = ?", item.ShopifyID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(item).Error
	}
	if err != nil {
		return err
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	return s.db.WithContext(ctx).
		Model(&models.Product{ID: existing.ID}).
		Updates(map[string]any{
			"name":              item.Name,
			"handle":            item.Handle,
			"image_url":         item.ImageURL,
			"short_description": item.ShortDescription,
			"updated_at":        time.Now().UTC(),
		}).Error
}

func (s *Store) DeleteProductCascade(ctx context.Context, productID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.Tag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", productID).Delete(&models.Variant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, productID).Error
	})
}

func (s *Store) GetSystemTag(ctx context.Context, productID uint64) (*models.Tag, error) {
	var item models.Tag
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Where("is_system_tag = ?", true).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteTagsByProductID(ctx context.Context, productID uint64) error {
	return s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.Tag{}).Error
}

func (s *Store) UpsertVariant(ctx context.Context, item *models.Variant) error {
	var existing models.Variant
	err := s.db.WithContext(ctx).
		Where("shopify_id = ?", item.ShopifyID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(item).Error
	}
	if err != nil {
		return err
	}
	item.ID = existing.ID
	return s.db.WithContext(ctx).
		Model(&models.Variant{ID: existing.ID}).
		Updates(map[string]any{
			"product_id": item.ProductID,
			"name":       item.Name,
			"sku":        item.SKU,
			"quantity":   item.Quantity,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (s *Store) ListSystemTags(ctx context.Context, limit, offset int) ([]models.Tag, int64, error) {
	limit = normalizeLimit(limit, 15)
	if offset < 0 {
		offset = 0
	}
	query := s.db.WithContext(ctx).
		Model(&models.Tag{}).
		Where("is_system_tag = ?", true)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Tag
	err := query.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	return items, total, err
}

// --- messaging --------------------------------------------------------------

func (s *Store) GetCommentByID(ctx context.Context, id uint64) (*models.Comment, error) {
	var item models.Comment
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetCommentByFacebookID(ctx context.Context, facebookID string) (*models.Comment, error) {
	var item models.Comment
	err := s.db.WithContext(ctx).
		Where("facebook_id = ?", facebookID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) HasPrivateMessage(ctx context.Context, commentID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.PrivateMessage{}).
		Where("comment_id = ?", commentID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) IsReplyToPage(ctx context.Context, parentFacebookID string) (bool, error) {
	if parentFacebookID == "" {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("facebook_id = ?", parentFacebookID).
		Where("is_from_page = ?", true).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) GetPostByFacebookID(ctx context.Context, facebookID string) (*models.Post, error) {
	var item models.Post
	err := s.db.WithContext(ctx).
		Where("facebook_id = ?", facebookID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) FindProductsByTagNames(ctx context.Context, names []string, limit int) ([]models.Product, error) {
	if len(names) == 0 {
		return nil, nil
	}
	limit = normalizeLimit(limit, 10)
	var items []models.Product
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Variants").
		Where("id IN (?)", s.db.
			Model(&models.Tag{}).
			Select("product_id").
			Where("name IN ?", names),
		).
		Order("id asc").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (s *Store) CreatePrivateMessage(ctx context.Context, item *models.PrivateMessage) error {
	return s.db.WithContext(ctx).Create(item).Error
}

// --- feed -------------------------------------------------------------------

func (s *Store) UpsertComment(ctx context.Context, item *models.Comment) error {
	var existing models.Comment
	err := s.db.WithContext(ctx).
		Where("facebook_id = ?", item.FacebookID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(item).Error
	}
	if err != nil {
		return err
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	return s.db.WithContext(ctx).
		Model(&models.Comment{ID: existing.ID}).
		Updates(map[string]any{
			"facebook_user_id":    item.FacebookUserID,
			"commenter":           item.Commenter,
			"post_id":             item.PostID,
			"parent_id":           item.ParentID,
			"post_type":           item.PostType,
			"post_link":           item.PostLink,
			"message":             item.Message,
			"facebook_created_at": item.FacebookCreatedAt,
			"is_from_page":        item.IsFromPage,
			"updated_at":          time.Now().UTC(),
		}).Error
}

func (s *Store) DeleteCommentByFacebookID(ctx context.Context, facebookID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Comment
		err := tx.Where("facebook_id = ?", facebookID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gorm.ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("comment_id = ?", item.ID).Delete(&models.PrivateMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comment{}, item.ID).Error
	})
}

func (s *Store) UpsertPost(ctx context.Context, item *models.Post) error {
	var existing models.Post
	err := s.db.WithContext(ctx).
		Where("facebook_id = ?", item.FacebookID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(item).Error
	}
	if err != nil {
		return err
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	return s.db.WithContext(ctx).
		Model(&models.Post{ID: existing.ID}).
		Updates(map[string]any{
			"message":    item.Message,
			"post_type":  item.PostType,
			"is_live":    item.IsLive,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (s *Store) ListLivePosts(ctx context.Context) ([]models.Post, error) {
	var items []models.Post
	err := s.db.WithContext(ctx).
		Where("is_live = ?", true).
		Where("post_type = ?", "live").
		Find(&items).Error
	return items, err
}

func (s *Store) SetPostLive(ctx context.Context, postID uint64, live bool) error {
	return s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Updates(map[string]any{"is_live": live, "updated_at": time.Now().UTC()}).
		Error
}

func (s *Store) DeleteCommentsBefore(ctx context.Context, before time.Time, batchSize int) (int64, error) {
	batchSize = normalizeLimit(batchSize, 100)
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint64
		err := tx.Model(&models.Comment{}).
			Joins("JOIN posts ON posts.facebook_id = comments.post_id").
			Where("posts.post_type <> ?", "live").
			Where("comments.facebook_created_at < ?", before).
			Limit(batchSize).
			Pluck("comments.id", &ids).Error
		if err != nil || len(ids) == 0 {
			return err
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.PrivateMessage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Comment{})
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
