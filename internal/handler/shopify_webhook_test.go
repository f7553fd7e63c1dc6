package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livecart/internal/catalog"
	"livecart/internal/models"
)

// stubProductStore implements the slice of repository.CatalogStore the
// webhook tests exercise.
type stubProductStore struct {
	byShopifyID map[int64]*models.Product
	deleted     []uint64
}

func (s *stubProductStore) GetProductByShopifyID(ctx context.Context, shopifyID int64) (*models.Product, error) {
	return s.byShopifyID[shopifyID], nil
}

func (s *stubProductStore) UpsertProduct(ctx context.Context, item *models.Product) error { return nil }

func (s *stubProductStore) DeleteProductCascade(ctx context.Context, productID uint64) error {
	s.deleted = append(s.deleted, productID)
	return nil
}

func (s *stubProductStore) GetSystemTag(ctx context.Context, productID uint64) (*models.Tag, error) {
	return nil, nil
}

func (s *stubProductStore) DeleteTagsByProductID(ctx context.Context, productID uint64) error {
	return nil
}

func (s *stubProductStore) CreateTag(ctx context.Context, item *models.Tag) error { return nil }

func (s *stubProductStore) UpsertVariant(ctx context.Context, item *models.Variant) error {
	return nil
}

func (s *stubProductStore) ListSystemTags(ctx context.Context, limit, offset int) ([]models.Tag, int64, error) {
	return nil, 0, nil
}

func newShopifyTestRouter(store *stubProductStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &ShopifyWebhookHandler{
		Syncer:    &catalog.Syncer{Repo: store, Logger: zap.NewNop()},
		APISecret: "app-secret",
		Logger:    zap.NewNop(),
	}
	h.Register(r)
	return r
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func postShopifyWebhook(r *gin.Engine, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/shopify/webhook", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestShopifyWebhookRejectsEmptyBody(t *testing.T) {
	r := newShopifyTestRouter(&stubProductStore{})
	w := postShopifyWebhook(r, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestShopifyWebhookRejectsMissingHeaders(t *testing.T) {
	r := newShopifyTestRouter(&stubProductStore{})
	body := []byte(`{"id":1}`)
	w := postShopifyWebhook(r, body, map[string]string{
		headerShopifyHMAC: sign("app-secret", body),
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestShopifyWebhookRejectsBadSignature(t *testing.T) {
	r := newShopifyTestRouter(&stubProductStore{})
	body := []byte(`{"id":1}`)
	w := postShopifyWebhook(r, body, map[string]string{
		headerShopifyHMAC:   sign("wrong-secret", body),
		headerShopifyTopic:  "products/delete",
		headerShopifyDomain: "shop.example",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestShopifyWebhookDeletesProduct(t *testing.T) {
	store := &stubProductStore{byShopifyID: map[int64]*models.Product{
		100: {ID: 5, ShopifyID: 100},
	}}
	r := newShopifyTestRouter(store)
	body := []byte(`{"id":100}`)
	w := postShopifyWebhook(r, body, map[string]string{
		headerShopifyHMAC:   sign("app-secret", body),
		headerShopifyTopic:  "products/delete",
		headerShopifyDomain: "shop.example",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 5 {
		t.Fatalf("deleted = %v, want [5]", store.deleted)
	}
}

func TestShopifyWebhookIgnoresUnknownTopic(t *testing.T) {
	r := newShopifyTestRouter(&stubProductStore{})
	body := []byte(`{"id":1}`)
	w := postShopifyWebhook(r, body, map[string]string{
		headerShopifyHMAC:   sign("app-secret", body),
		headerShopifyTopic:  "orders/create",
		headerShopifyDomain: "shop.example",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestNormalizeTopic(t *testing.T) {
	cases := map[string]string{
		"products/create": "PRODUCTS_CREATE",
		"products/update": "PRODUCTS_UPDATE",
		"app/uninstalled": "APP_UNINSTALLED",
	}
	for in, want := range cases {
		if got := normalizeTopic(in); got != want {
			t.Fatalf("normalizeTopic(%q) = %q, want %q", in, got, want)
		}
	}
}
