package catalog

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"livecart/internal/trigger"
)

// SearchResult is the outcome of a SKU lookup against the remote store.
type SearchResult struct {
	Error   bool
	Message string
	Status  int
	Data    *SearchData
}

type SearchData struct {
	Trigger          string
	ProductName      string
	TracksInventory  bool
	Quantity         int
	ProductShopifyID int64
}

// SearchBySKU resolves a SKU to the product's trigger code. Missing
// product or missing trigger tags come back as a 404-shaped result,
// not a Go error.
func (s *Syncer) SearchBySKU(ctx context.Context, sku string) (*SearchResult, error) {
	product, err := s.Shopify.FindProductBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return &SearchResult{
			Error:   true,
			Message: "No product found with this SKU.",
			Status:  http.StatusNotFound,
		}, nil
	}

	var codes []string
	for _, tag := range parseTags(product.Tags) {
		if !strings.HasPrefix(tag, trigger.LabelPrefix) {
			continue
		}
		code := strings.TrimSpace(strings.TrimPrefix(tag, trigger.LabelPrefix))
		if code != "" {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		return &SearchResult{
			Error:   true,
			Message: "This product does not have any trigger tags.",
			Status:  http.StatusNotFound,
		}, nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(codes)))

	return &SearchResult{
		Status: http.StatusOK,
		Data: &SearchData{
			Trigger:          codes[0],
			ProductName:      product.Title,
			TracksInventory:  product.TracksInventory,
			Quantity:         product.VariantQuantity,
			ProductShopifyID: product.ID,
		},
	}, nil
}
