package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"livecart/internal/client/shopify"
	"livecart/internal/models"
	"livecart/internal/repository"
	"livecart/internal/trigger"
)

// metafield key carrying the storefront short description.
const descriptionMetafieldKey = "description_tag"

// StoreClient is the slice of the Shopify client the syncer needs.
type StoreClient interface {
	FindProductBySKU(ctx context.Context, sku string) (*shopify.SKUProduct, error)
	ListAllWithDescriptions(ctx context.Context, fn func(shopify.Product) error) error
	GetProductMetafields(ctx context.Context, productID int64) ([]shopify.Metafield, error)
}

// ProductInput is a catalog entry as delivered by webhook or full sync.
type ProductInput struct {
	ID               int64
	Title            string
	Handle           string
	ImageURL         string
	ShortDescription string
	Tags             []string
	Variants         []VariantInput
}

type VariantInput struct {
	ID       int64
	Title    string
	SKU      string
	Quantity int
}

// FromListing converts a full-sync listing entry into an input.
func FromListing(p shopify.Product) ProductInput {
	in := ProductInput{
		ID:               p.ID,
		Title:            p.Title,
		Handle:           p.Handle,
		ImageURL:         p.ImageURL,
		ShortDescription: p.SEODescription,
		Tags:             p.Tags,
	}
	for _, v := range p.Variants {
		in.Variants = append(in.Variants, VariantInput{
			ID:       v.ID,
			Title:    v.Title,
			SKU:      v.SKU,
			Quantity: v.Quantity,
		})
	}
	return in
}

// Syncer keeps the local product mirror in step with the remote store.
type Syncer struct {
	Repo       repository.CatalogStore
	Shopify    StoreClient
	Assigner   *trigger.Assigner
	AutoAssign bool
	Logger     *zap.Logger
}

// CreateProduct mirrors a new remote product. Products carrying neither
// a trigger label nor a variant with a SKU are skipped.
func (s *Syncer) CreateProduct(ctx context.Context, in ProductInput) error {
	if !hasTriggerLabel(in.Tags) && !hasValidVariant(in.Variants) {
		s.Logger.Info("skipping product without trigger tag or valid variant",
			zap.Int64("shopify_id", in.ID))
		return nil
	}

	item := &models.Product{
		ShopifyID:        in.ID,
		Name:             in.Title,
		Handle:           in.Handle,
		ImageURL:         optional(in.ImageURL),
		ShortDescription: optional(in.ShortDescription),
	}
	if err := s.Repo.UpsertProduct(ctx, item); err != nil {
		return err
	}
	if err := s.SyncTags(ctx, item.ID, in.Tags, nil); err != nil {
		return err
	}
	if err := s.ReplaceVariants(ctx, item.ID, in.Variants); err != nil {
		return err
	}

	if s.AutoAssign && s.Assigner != nil {
		if _, err := s.Assigner.Assign(ctx, item.ID, firstSKU(in.Variants)); err != nil {
			s.Logger.Error("auto assign trigger",
				zap.Uint64("product_id", item.ID),
				zap.Error(err))
		}
	}
	return nil
}

// CreateFromWebhook is CreateProduct for webhook payloads, which do
// not carry the short description; it is fetched from the metafields.
func (s *Syncer) CreateFromWebhook(ctx context.Context, in ProductInput) error {
	in.ShortDescription = s.fetchShortDescription(ctx, in.ID)
	return s.CreateProduct(ctx, in)
}

// UpdateProduct reconciles a changed remote product. Unknown products
// fall through to CreateProduct; products whose upstream tags lost
// every trigger label are deleted locally.
func (s *Syncer) UpdateProduct(ctx context.Context, in ProductInput) error {
	local, err := s.Repo.GetProductByShopifyID(ctx, in.ID)
	if err != nil {
		return err
	}
	if local == nil {
		in.ShortDescription = s.fetchShortDescription(ctx, in.ID)
		return s.CreateProduct(ctx, in)
	}

	if !hasTriggerLabel(in.Tags) {
		s.Logger.Info("deleting product without trigger tag",
			zap.Uint64("product_id", local.ID),
			zap.Int64("shopify_id", in.ID))
		return s.Repo.DeleteProductCascade(ctx, local.ID)
	}

	item := &models.Product{
		ShopifyID:        in.ID,
		Name:             in.Title,
		Handle:           in.Handle,
		ImageURL:         optional(in.ImageURL),
		ShortDescription: optional(s.fetchShortDescription(ctx, in.ID)),
	}
	if err := s.Repo.UpsertProduct(ctx, item); err != nil {
		return err
	}

	systemTag, err := s.Repo.GetSystemTag(ctx, local.ID)
	if err != nil {
		return err
	}
	if err := s.SyncTags(ctx, local.ID, in.Tags, systemTag); err != nil {
		return err
	}
	if err := s.ReplaceVariants(ctx, local.ID, in.Variants); err != nil {
		return err
	}

	s.Logger.Info("updated product",
		zap.Uint64("product_id", local.ID),
		zap.Int64("shopify_id", in.ID))
	return nil
}

// DeleteProduct drops the local mirror of a removed remote product.
func (s *Syncer) DeleteProduct(ctx context.Context, shopifyID int64) error {
	local, err := s.Repo.GetProductByShopifyID(ctx, shopifyID)
	if err != nil {
		return err
	}
	if local == nil {
		s.Logger.Warn("product not found, skipping deletion",
			zap.Int64("shopify_id", shopifyID))
		return nil
	}
	return s.Repo.DeleteProductCascade(ctx, local.ID)
}

// SyncTags replaces the product's tags with the upstream set. Only
// trigger-prefixed upstream tags are kept, stored with the prefix
// stripped. The product's system tag survives the replacement iff the
// upstream set still contains its label.
func (s *Syncer) SyncTags(ctx context.Context, productID uint64, tags []string, systemTag *models.Tag) error {
	if err := s.Repo.DeleteTagsByProductID(ctx, productID); err != nil {
		return err
	}

	hasSystemTag := false
	seen := make(map[string]struct{})
	for _, tag := range parseTags(tags) {
		if !strings.HasPrefix(tag, trigger.LabelPrefix) {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(tag, trigger.LabelPrefix))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if systemTag != nil && name == systemTag.Name {
			hasSystemTag = true
		}
		err := s.Repo.CreateTag(ctx, &models.Tag{
			Name:        name,
			ProductID:   productID,
			IsSystemTag: false,
		})
		if err != nil {
			return err
		}
	}

	if systemTag != nil && hasSystemTag {
		err := s.Repo.CreateTag(ctx, &models.Tag{
			Name:        systemTag.Name,
			ProductID:   productID,
			IsSystemTag: true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplaceVariants upserts the upstream variant set by remote id.
func (s *Syncer) ReplaceVariants(ctx context.Context, productID uint64, variants []VariantInput) error {
	for _, v := range variants {
		item := &models.Variant{
			ShopifyID: v.ID,
			ProductID: productID,
			Name:      v.Title,
			SKU:       optional(v.SKU),
			Quantity:  v.Quantity,
		}
		if err := s.Repo.UpsertVariant(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// SyncAll walks the whole remote catalog and mirrors every product.
func (s *Syncer) SyncAll(ctx context.Context) error {
	count := 0
	err := s.Shopify.ListAllWithDescriptions(ctx, func(p shopify.Product) error {
		count++
		return s.CreateProduct(ctx, FromListing(p))
	})
	if err != nil {
		return err
	}
	s.Logger.Info("catalog sync complete", zap.Int("products", count))
	return nil
}

func (s *Syncer) fetchShortDescription(ctx context.Context, shopifyID int64) string {
	fields, err := s.Shopify.GetProductMetafields(ctx, shopifyID)
	if err != nil {
		s.Logger.Warn("fetch product metafields",
			zap.Int64("shopify_id", shopifyID),
			zap.Error(err))
		return ""
	}
	for _, f := range fields {
		if f.Key == descriptionMetafieldKey {
			return f.Value
		}
	}
	return ""
}

// parseTags trims, dedupes and drops empty entries.
func parseTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SplitTagList splits a comma-joined tag string, the shape webhooks
// deliver tags in.
func SplitTagList(tags string) []string {
	return parseTags(strings.Split(tags, ","))
}

func hasTriggerLabel(tags []string) bool {
	for _, tag := range tags {
		if strings.Contains(tag, trigger.LabelPrefix) {
			return true
		}
	}
	return false
}

func hasValidVariant(variants []VariantInput) bool {
	for _, v := range variants {
		if strings.TrimSpace(v.SKU) != "" {
			return true
		}
	}
	return false
}

func firstSKU(variants []VariantInput) string {
	for _, v := range variants {
		if strings.TrimSpace(v.SKU) != "" {
			return v.SKU
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
