package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livecart/internal/catalog"
	"livecart/internal/events"
	"livecart/internal/repository"
	"livecart/internal/trigger"
)

// ProductHandler exposes the operator API: SKU search, trigger tag
// listing and release.
type ProductHandler struct {
	Repo       repository.Repository
	Syncer     *catalog.Syncer
	Assigner   *trigger.Assigner
	Releaser   *trigger.Releaser
	Dispatcher *events.Dispatcher
	AutoAssign bool
	Logger     *zap.Logger
}

func (h *ProductHandler) Register(r *gin.Engine) {
	group := r.Group("/api/products")
	group.POST("/search", h.search)
	group.GET("/tags", h.listTags)
	group.DELETE("/tags", h.deleteTags)
	group.DELETE("/tags/all", h.deleteAllTags)
}

type searchRequest struct {
	SKU string `json:"sku" binding:"required"`
}

func (h *ProductHandler) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusUnprocessableEntity, "sku is required", nil)
		return
	}

	ctx := c.Request.Context()
	result, err := h.Syncer.SearchBySKU(ctx, req.SKU)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if result.Error {
		Error(c, result.Status, result.Message, nil)
		return
	}
	data := result.Data

	var autoTrigger map[string]any
	if h.AutoAssign {
		product, err := h.Repo.GetProductByShopifyID(ctx, data.ProductShopifyID)
		if err != nil {
			Error(c, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		if product != nil {
			code, err := h.Assigner.Assign(ctx, product.ID, req.SKU)
			if err != nil {
				h.Logger.Error("auto assign on search",
					zap.Uint64("product_id", product.ID),
					zap.Error(err))
			} else {
				autoTrigger = map[string]any{
					"sku":         req.SKU,
					"productName": data.ProductName,
					"triggerTag":  code,
					"quantity":    data.Quantity,
				}
			}
		}
	}

	message := fmt.Sprintf("%q %q", data.ProductName, data.Trigger)
	if data.TracksInventory {
		left := fmt.Sprintf("%d left", data.Quantity)
		if data.Quantity > 10 {
			left = "10+ left"
		}
		message += ". Only " + left + "!"
	}
	message += " Reply to this comment to purchase."

	body := map[string]any{
		"message": message,
		"data":    map[string]any{"trigger": data.Trigger},
	}
	if autoTrigger != nil {
		body["autoTrigger"] = autoTrigger
	}
	Ok(c, body, nil)
}

func (h *ProductHandler) listTags(c *gin.Context) {
	limit := intQuery(c, "limit", 15)
	offset := intQuery(c, "offset", 0)

	items, total, err := h.Repo.ListSystemTags(c.Request.Context(), limit, offset)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

type deleteTagsRequest struct {
	TagIDs []uint64 `json:"tag_ids" binding:"required,min=1"`
}

func (h *ProductHandler) deleteTags(c *gin.Context) {
	var req deleteTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusUnprocessableEntity, "tag_ids is required", nil)
		return
	}
	if err := h.Releaser.Release(c.Request.Context(), req.TagIDs); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"released": len(req.TagIDs)}, nil)
}

func (h *ProductHandler) deleteAllTags(c *gin.Context) {
	ids, err := h.Repo.ListSystemTagIDs(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if len(ids) == 0 {
		Error(c, http.StatusNotFound, "no system tags found to delete", nil)
		return
	}

	h.Dispatcher.Dispatch("release-all-tags", func(ctx context.Context) error {
		return h.Releaser.ReleaseAll(ctx)
	})
	Ok(c, nil, map[string]any{"queued": len(ids)})
}
