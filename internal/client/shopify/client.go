package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const apiVersion = "2024-04"

// Client talks to the Shopify Admin API. Tag mutations and product
// lookups go through GraphQL; metafields stay on REST.
type Client struct {
	StoreName   string
	AccessToken string

	HTTP *http.Client
}

// AddProductTag adds a label to the remote product. The label is sent
// verbatim; callers prepend the trigger prefix themselves.
func (c *Client) AddProductTag(ctx context.Context, productID int64, tag string) error {
	query := `
	mutation addTags($id: ID!, $tags: [String!]!) {
	  tagsAdd(id: $id, tags: $tags) {
	    node { id }
	    userErrors { message }
	  }
	}`
	variables := map[string]any{
		"id":   productGID(productID),
		"tags": []string{tag},
	}
	var out struct {
		Data struct {
			TagsAdd struct {
				UserErrors []userError `json:"userErrors"`
			} `json:"tagsAdd"`
		} `json:"data"`
	}
	if err := c.graphql(ctx, query, variables, &out); err != nil {
		return err
	}
	return firstUserError("add tag", out.Data.TagsAdd.UserErrors)
}

// RemoveProductTag removes a label from the remote product.
func (c *Client) RemoveProductTag(ctx context.Context, productID int64, tag string) error {
	query := `
	mutation removeTags($id: ID!, $tags: [String!]!) {
	  tagsRemove(id: $id, tags: $tags) {
	    node { id }
	    userErrors { message }
	  }
	}`
	variables := map[string]any{
		"id":   productGID(productID),
		"tags": []string{tag},
	}
	var out struct {
		Data struct {
			TagsRemove struct {
				UserErrors []userError `json:"userErrors"`
			} `json:"tagsRemove"`
		} `json:"data"`
	}
	if err := c.graphql(ctx, query, variables, &out); err != nil {
		return err
	}
	return firstUserError("remove tag", out.Data.TagsRemove.UserErrors)
}

// SKUProduct is the product behind a variant SKU lookup.
type SKUProduct struct {
	ID              int64
	Title           string
	Tags            []string
	TracksInventory bool
	VariantQuantity int
}

// FindProductBySKU resolves the product owning a variant with the given
// SKU. Returns (nil, nil) when no variant matches.
func (c *Client) FindProductBySKU(ctx context.Context, sku string) (*SKUProduct, error) {
	query := fmt.Sprintf(`
	{
	  productVariants(first: 1, query: "sku:%s") {
	    nodes {
	      product { id title tags tracksInventory }
	      inventoryQuantity
	    }
	  }
	}`, sku)
	var out struct {
		Data struct {
			ProductVariants struct {
				Nodes []struct {
					Product struct {
						ID              string   `json:"id"`
						Title           string   `json:"title"`
						Tags            []string `json:"tags"`
						TracksInventory bool     `json:"tracksInventory"`
					} `json:"product"`
					InventoryQuantity int `json:"inventoryQuantity"`
				} `json:"nodes"`
			} `json:"productVariants"`
		} `json:"data"`
	}
	if err := c.graphql(ctx, query, nil, &out); err != nil {
		return nil, err
	}
	nodes := out.Data.ProductVariants.Nodes
	if len(nodes) == 0 {
		return nil, nil
	}
	node := nodes[0]
	return &SKUProduct{
		ID:              numericGID(node.Product.ID),
		Title:           node.Product.Title,
		Tags:            node.Product.Tags,
		TracksInventory: node.Product.TracksInventory,
		VariantQuantity: node.InventoryQuantity,
	}, nil
}

// Product is one catalog entry from the full listing.
type Product struct {
	ID             int64
	Title          string
	Handle         string
	Tags           []string
	ImageURL       string
	SEODescription string
	Variants       []Variant
}

type Variant struct {
	ID       int64
	Title    string
	SKU      string
	Quantity int
}

// ListAllWithDescriptions walks the whole catalog in pages of 250 and
// calls fn for each product. A non-nil error from fn stops the walk.
func (c *Client) ListAllWithDescriptions(ctx context.Context, fn func(Product) error) error {
	cursor := ""
	for {
		after := ""
		if cursor != "" {
			after = fmt.Sprintf(`, after: %q`, cursor)
		}
		query := fmt.Sprintf(`
		{
		  products(first: 250%s) {
		    edges {
		      node {
		        id
		        title
		        handle
		        tags
		        variants(first: 5) {
		          nodes { id title sku inventoryQuantity }
		        }
		        featuredMedia { preview { image { url } } }
		        seo { description }
		      }
		    }
		    pageInfo { hasNextPage endCursor }
		  }
		}`, after)

		var out struct {
			Data struct {
				Products struct {
					Edges []struct {
						Node struct {
							ID       string   `json:"id"`
							Title    string   `json:"title"`
							Handle   string   `json:"handle"`
							Tags     []string `json:"tags"`
							Variants struct {
								Nodes []struct {
									ID                string `json:"id"`
									Title             string `json:"title"`
									SKU               string `json:"sku"`
									InventoryQuantity int    `json:"inventoryQuantity"`
								} `json:"nodes"`
							} `json:"variants"`
							FeaturedMedia struct {
								Preview struct {
									Image struct {
										URL string `json:"url"`
									} `json:"image"`
								} `json:"preview"`
							} `json:"featuredMedia"`
							SEO struct {
								Description string `json:"description"`
							} `json:"seo"`
						} `json:"node"`
					} `json:"edges"`
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
				} `json:"products"`
			} `json:"data"`
		}
		if err := c.graphql(ctx, query, nil, &out); err != nil {
			return err
		}

		for _, edge := range out.Data.Products.Edges {
			node := edge.Node
			item := Product{
				ID:             numericGID(node.ID),
				Title:          node.Title,
				Handle:         node.Handle,
				Tags:           node.Tags,
				ImageURL:       node.FeaturedMedia.Preview.Image.URL,
				SEODescription: node.SEO.Description,
			}
			for _, v := range node.Variants.Nodes {
				item.Variants = append(item.Variants, Variant{
					ID:       numericGID(v.ID),
					Title:    v.Title,
					SKU:      v.SKU,
					Quantity: v.InventoryQuantity,
				})
			}
			if err := fn(item); err != nil {
				return err
			}
		}

		if !out.Data.Products.PageInfo.HasNextPage {
			return nil
		}
		cursor = out.Data.Products.PageInfo.EndCursor
	}
}

type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

func (c *Client) GetProductMetafields(ctx context.Context, productID int64) ([]Metafield, error) {
	u := c.baseURL() + "/products/" + strconv.FormatInt(productID, 10) + "/metafields.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.AccessToken)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("shopify metafields http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out struct {
		Metafields []Metafield `json:"metafields"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out.Metafields, nil
}

func (c *Client) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	payload := map[string]any{"query": query}
	if variables != nil {
		payload["variables"] = variables
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/graphql.json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.AccessToken)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("shopify graphql http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}

type userError struct {
	Message string `json:"message"`
}

func firstUserError(op string, errs []userError) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("shopify %s: %s", op, errs[0].Message)
}

func (c *Client) baseURL() string {
	return "https://" + strings.TrimSpace(c.StoreName) + "/admin/api/" + apiVersion
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// numericGID strips the gid://shopify/... prefix down to the numeric id.
func numericGID(gid string) int64 {
	idx := strings.LastIndex(gid, "/")
	if idx >= 0 {
		gid = gid[idx+1:]
	}
	n, _ := strconv.ParseInt(gid, 10, 64)
	return n
}

func productGID(productID int64) string {
	return "gid://shopify/Product/" + strconv.FormatInt(productID, 10)
}
