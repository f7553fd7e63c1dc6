package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livecart/internal/catalog"
)

const (
	headerShopifyHMAC   = "X-Shopify-Hmac-Sha256"
	headerShopifyTopic  = "X-Shopify-Topic"
	headerShopifyDomain = "X-Shopify-Shop-Domain"
)

// ShopifyWebhookHandler receives product lifecycle webhooks from the
// store. Requests are authenticated with the app secret HMAC before
// anything is parsed.
type ShopifyWebhookHandler struct {
	Syncer    *catalog.Syncer
	APISecret string
	Logger    *zap.Logger
}

func (h *ShopifyWebhookHandler) Register(r *gin.Engine) {
	r.POST("/api/shopify/webhook", h.handle)
}

type shopifyProductPayload struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
	Tags   string `json:"tags"`
	Images []struct {
		Src string `json:"src"`
	} `json:"images"`
	Variants []struct {
		ID                int64  `json:"id"`
		Title             string `json:"title"`
		SKU               string `json:"sku"`
		InventoryQuantity int    `json:"inventory_quantity"`
	} `json:"variants"`
}

func (h *ShopifyWebhookHandler) handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 4<<20))
	if err != nil || len(body) == 0 {
		Error(c, http.StatusUnauthorized, "no body was received when processing webhook", nil)
		return
	}

	signature := c.GetHeader(headerShopifyHMAC)
	topic := c.GetHeader(headerShopifyTopic)
	domain := c.GetHeader(headerShopifyDomain)
	if signature == "" || topic == "" || domain == "" {
		Error(c, http.StatusUnauthorized, "missing one or more of the required webhook headers", nil)
		return
	}
	if !h.validSignature(body, signature) {
		Error(c, http.StatusUnauthorized, "could not validate webhook hmac", nil)
		return
	}

	var payload shopifyProductPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		Error(c, http.StatusBadRequest, "undecodable webhook payload", nil)
		return
	}

	normalized := normalizeTopic(topic)
	h.Logger.Info("shopify webhook received", zap.String("topic", normalized))

	ctx := c.Request.Context()
	switch normalized {
	case "PRODUCTS_CREATE":
		err = h.Syncer.CreateFromWebhook(ctx, toProductInput(payload))
	case "PRODUCTS_UPDATE":
		err = h.Syncer.UpdateProduct(ctx, toProductInput(payload))
	case "PRODUCTS_DELETE":
		err = h.Syncer.DeleteProduct(ctx, payload.ID)
	default:
		h.Logger.Info("unhandled shopify topic", zap.String("topic", normalized))
	}
	if err != nil {
		h.Logger.Error("process shopify webhook",
			zap.String("topic", normalized),
			zap.Int64("shopify_id", payload.ID),
			zap.Error(err))
		Error(c, http.StatusInternalServerError, "webhook processing failed", nil)
		return
	}
	c.String(http.StatusOK, "")
}

func (h *ShopifyWebhookHandler) validSignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.APISecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// normalizeTopic turns "products/create" into "PRODUCTS_CREATE".
func normalizeTopic(topic string) string {
	topic = strings.ReplaceAll(topic, "/", "_")
	topic = strings.ReplaceAll(topic, ".", "_")
	return strings.ToUpper(topic)
}

func toProductInput(p shopifyProductPayload) catalog.ProductInput {
	in := catalog.ProductInput{
		ID:     p.ID,
		Title:  p.Title,
		Handle: p.Handle,
		Tags:   catalog.SplitTagList(p.Tags),
	}
	if len(p.Images) > 0 {
		in.ImageURL = p.Images[0].Src
	}
	for _, v := range p.Variants {
		in.Variants = append(in.Variants, catalog.VariantInput{
			ID:       v.ID,
			Title:    v.Title,
			SKU:      v.SKU,
			Quantity: v.InventoryQuantity,
		})
	}
	return in
}
