package messenger

import (
	"encoding/json"
	"net/url"
	"strconv"

	"livecart/internal/models"
)

const (
	subtitlePromptReserve   = "Do you want to reserve this product in your invoice?"
	subtitlePromptAuthorize = "Click the button below to authorize with us and reserve the product."
	subtitleReserved        = "The product has been reserved. Please check your cart."
	subtitleReserveFailed   = "There was an error reserving this product."
	subtitleOutOfStock      = "Product is out of stock. Do you want to add it to the waitlist?"
	subtitleAuthorize       = "Click the button below to authorize with us"
	titleAuthorize          = "Authorize with us"
)

// AuthLinker builds the cart-service authorization link embedded in
// web_url buttons.
type AuthLinker interface {
	AuthorizationURL(params url.Values) string
}

// Builder renders every private-message variant the page sends. All
// variants share one generic-template shape; they differ only in
// subtitle and buttons.
type Builder struct {
	StoreName string
	Auth      AuthLinker
}

// Browse shows the products with their descriptions, no call to action.
func (b *Builder) Browse(recipient Recipient, products []models.Product) Payload {
	return genericTemplate(recipient, b.elements(products, func(p *models.Product) (string, []Button) {
		return deref(p.ShortDescription), nil
	}))
}

// PromptReserve offers a Reserve postback button per product.
func (b *Builder) PromptReserve(recipient Recipient, products []models.Product, commentID uint64) Payload {
	return genericTemplate(recipient, b.elements(products, func(p *models.Product) (string, []Button) {
		return subtitlePromptReserve, []Button{postbackButton("Reserve", ActionReserveProduct, p.ID, commentID)}
	}))
}

// PromptAuthorizeReserve links unknown commenters to the cart service
// before they can reserve.
func (b *Builder) PromptAuthorizeReserve(recipient Recipient, products []models.Product, commenterName string) Payload {
	return genericTemplate(recipient, b.elements(products, func(p *models.Product) (string, []Button) {
		params := url.Values{
			"name":    {commenterName},
			"product": {strconv.FormatInt(p.ShopifyID, 10)},
		}
		if len(p.Variants) > 0 {
			params.Set("variant", strconv.FormatInt(p.Variants[0].ShopifyID, 10))
		}
		return subtitlePromptAuthorize, []Button{{
			Type:  "web_url",
			Title: "Click Here",
			URL:   b.Auth.AuthorizationURL(params),
		}}
	}))
}

// Outcome is a per-product reservation result rendered as a subtitle.
type Outcome struct {
	Product  models.Product
	Subtitle string
}

// ReserveOutcome reports the result of reservation attempts.
func (b *Builder) ReserveOutcome(recipient Recipient, outcomes []Outcome) Payload {
	elements := make([]Element, 0, len(outcomes))
	for i := range outcomes {
		subtitle := outcomes[i].Subtitle
		if subtitle == "" {
			subtitle = subtitleReserved
		}
		elements = append(elements, b.element(&outcomes[i].Product, subtitle, nil))
	}
	return genericTemplate(recipient, elements)
}

// WaitlistOffer proposes queueing for an out-of-stock product.
func (b *Builder) WaitlistOffer(recipient Recipient, product *models.Product, commentID uint64) Payload {
	element := b.element(product, subtitleOutOfStock,
		[]Button{postbackButton("Add to waitlist", ActionAddToWaitList, product.ID, commentID)})
	return genericTemplate(recipient, []Element{element})
}

// Authorize is the bare account-linking prompt, sent without any
// product context.
func (b *Builder) Authorize(recipient Recipient, commenterName string) Payload {
	return genericTemplate(recipient, []Element{{
		Title:    titleAuthorize,
		Subtitle: subtitleAuthorize,
		Buttons: []Button{{
			Type:  "web_url",
			Title: "Authorize",
			URL:   b.Auth.AuthorizationURL(url.Values{"name": {commenterName}}),
		}},
	}})
}

func (b *Builder) elements(products []models.Product, fill func(*models.Product) (string, []Button)) []Element {
	elements := make([]Element, 0, len(products))
	for i := range products {
		subtitle, buttons := fill(&products[i])
		elements = append(elements, b.element(&products[i], subtitle, buttons))
	}
	return elements
}

func (b *Builder) element(product *models.Product, subtitle string, buttons []Button) Element {
	return Element{
		Title:    product.Name,
		ImageURL: deref(product.ImageURL),
		Subtitle: subtitle,
		DefaultAction: &Action{
			Type:               "web_url",
			URL:                b.productURL(product),
			WebviewHeightRatio: "tall",
		},
		Buttons: buttons,
	}
}

func (b *Builder) productURL(product *models.Product) string {
	return "https://" + b.StoreName + "/products/" + product.Handle
}

func postbackButton(title, action string, productID, commentID uint64) Button {
	payload, _ := json.Marshal(ButtonPayload{
		Action:    action,
		ProductID: productID,
		CommentID: commentID,
	})
	return Button{
		Type:    "postback",
		Title:   title,
		Payload: string(payload),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
