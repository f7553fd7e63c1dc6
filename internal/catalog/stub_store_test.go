package catalog

import (
	"context"

	"livecart/internal/client/shopify"
	"livecart/internal/models"
)

// stubCatalogStore is a test-only in-memory repository.CatalogStore.
type stubCatalogStore struct {
	byShopifyID map[int64]*models.Product
	nextID      uint64

	tags     map[uint64][]models.Tag
	variants map[int64]models.Variant

	deletedProducts []uint64
}

func newStubCatalogStore() *stubCatalogStore {
	return &stubCatalogStore{
		byShopifyID: map[int64]*models.Product{},
		tags:        map[uint64][]models.Tag{},
		variants:    map[int64]models.Variant{},
	}
}

func (s *stubCatalogStore) GetProductByShopifyID(ctx context.Context, shopifyID int64) (*models.Product, error) {
	return s.byShopifyID[shopifyID], nil
}

func (s *stubCatalogStore) UpsertProduct(ctx context.Context, item *models.Product) error {
	if existing, ok := s.byShopifyID[item.ShopifyID]; ok {
		item.ID = existing.ID
		s.byShopifyID[item.ShopifyID] = item
		return nil
	}
	s.nextID++
	item.ID = s.nextID
	s.byShopifyID[item.ShopifyID] = item
	return nil
}

func (s *stubCatalogStore) DeleteProductCascade(ctx context.Context, productID uint64) error {
	for shopifyID, item := range s.byShopifyID {
		if item.ID == productID {
			delete(s.byShopifyID, shopifyID)
		}
	}
	delete(s.tags, productID)
	s.deletedProducts = append(s.deletedProducts, productID)
	return nil
}

func (s *stubCatalogStore) GetSystemTag(ctx context.Context, productID uint64) (*models.Tag, error) {
	for _, tag := range s.tags[productID] {
		if tag.IsSystemTag {
			copied := tag
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubCatalogStore) DeleteTagsByProductID(ctx context.Context, productID uint64) error {
	delete(s.tags, productID)
	return nil
}

func (s *stubCatalogStore) CreateTag(ctx context.Context, item *models.Tag) error {
	s.tags[item.ProductID] = append(s.tags[item.ProductID], *item)
	return nil
}

func (s *stubCatalogStore) UpsertVariant(ctx context.Context, item *models.Variant) error {
	s.variants[item.ShopifyID] = *item
	return nil
}

func (s *stubCatalogStore) ListSystemTags(ctx context.Context, limit, offset int) ([]models.Tag, int64, error) {
	var out []models.Tag
	for _, tags := range s.tags {
		for _, tag := range tags {
			if tag.IsSystemTag {
				out = append(out, tag)
			}
		}
	}
	return out, int64(len(out)), nil
}

// stubShopify serves canned remote catalog data.
type stubShopify struct {
	skuProduct *shopify.SKUProduct
	listing    []shopify.Product
	metafields []shopify.Metafield
}

func (s *stubShopify) FindProductBySKU(ctx context.Context, sku string) (*shopify.SKUProduct, error) {
	return s.skuProduct, nil
}

func (s *stubShopify) ListAllWithDescriptions(ctx context.Context, fn func(shopify.Product) error) error {
	for _, item := range s.listing {
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubShopify) GetProductMetafields(ctx context.Context, productID int64) ([]shopify.Metafield, error) {
	return s.metafields, nil
}
