package trigger

import (
	"context"

	"go.uber.org/zap"

	"livecart/internal/models"
	"livecart/internal/repository"
)

// Releaser returns trigger codes to the pool.
type Releaser struct {
	Repo      repository.TriggerStore
	Catalog   CatalogClient
	Logger    *zap.Logger
	ChunkSize int
}

// Release moves the named tags into the released pool and deletes them,
// atomically. Remote catalog labels are removed after the commit; a
// failed removal is logged and does not undo the release.
func (r *Releaser) Release(ctx context.Context, tagIDs []uint64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	var released []models.Tag
	err := r.Repo.InTx(ctx, func(tx repository.TriggerStore) error {
		tags, err := tx.ListTagsByIDs(ctx, tagIDs)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			if err := tx.CreateReleasedTrigger(ctx, &models.ReleasedTrigger{Name: tag.Name}); err != nil {
				return err
			}
		}
		if err := tx.DeleteTagsByIDs(ctx, tagIDs); err != nil {
			return err
		}
		released = tags
		return nil
	})
	if err != nil {
		return err
	}

	for _, tag := range released {
		if tag.ProductID == 0 {
			continue
		}
		product, err := r.Repo.GetProductByID(ctx, tag.ProductID)
		if err != nil || product == nil {
			r.Logger.Warn("release: product lookup failed",
				zap.Uint64("product_id", tag.ProductID),
				zap.Error(err))
			continue
		}
		if err := r.Catalog.RemoveProductTag(ctx, product.ShopifyID, LabelPrefix+tag.Name); err != nil {
			r.Logger.Error("release: remove remote label",
				zap.Int64("shopify_id", product.ShopifyID),
				zap.String("code", tag.Name),
				zap.Error(err))
		}
	}

	r.Logger.Info("released trigger tags", zap.Int("count", len(released)))
	return nil
}

// ReleaseAll releases every system tag, in independent chunks so one
// bad chunk does not abort the rest.
func (r *Releaser) ReleaseAll(ctx context.Context) error {
	ids, err := r.Repo.ListSystemTagIDs(ctx)
	if err != nil {
		return err
	}

	size := r.ChunkSize
	if size <= 0 {
		size = 50
	}
	var firstErr error
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		if err := r.Release(ctx, ids[start:end]); err != nil {
			r.Logger.Error("release chunk failed",
				zap.Int("offset", start),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
