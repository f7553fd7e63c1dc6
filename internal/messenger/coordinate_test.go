package messenger

import (
	"context"
	"net/url"
	"testing"

	"go.uber.org/zap"

	"livecart/internal/client/smartcart"
	"livecart/internal/models"
)

type stubAuth struct{}

func (stubAuth) AuthorizationURL(params url.Values) string {
	return "https://cart.example/authorize?" + params.Encode()
}

func newTestCoordinator(store *stubMessageStore, cart *stubCart, graph *stubGraph) *Coordinator {
	logger := zap.NewNop()
	builder := &Builder{StoreName: "shop.example", Auth: stubAuth{}}
	sender := &Sender{Repo: store, Facebook: graph, Logger: logger}
	reserver := &Reserver{Repo: store, Cart: cart, Builder: builder, Sender: sender, Logger: logger}
	return &Coordinator{
		Repo:     store,
		Cart:     cart,
		Posts:    graph,
		Builder:  builder,
		Sender:   sender,
		Reserver: reserver,
		Logger:   logger,
	}
}

func testProduct(id uint64, shopifyID int64, code string) models.Product {
	desc := "A nice product."
	return models.Product{
		ID:               id,
		ShopifyID:        shopifyID,
		Name:             "Product " + code,
		Handle:           "product-" + code,
		ShortDescription: &desc,
		Tags:             []models.Tag{{Name: code, ProductID: id, IsSystemTag: true}},
	}
}

func seedComment(store *stubMessageStore, message string) *models.Comment {
	comment := &models.Comment{
		ID:             1,
		FacebookID:     "c-1",
		FacebookUserID: "u-1",
		Commenter:      "Jane Doe",
		PostID:         "page_post",
		Message:        message,
	}
	store.comments[comment.ID] = comment
	store.byFacebookID[comment.FacebookID] = comment
	return comment
}

func TestCoordinateSkipsWhenAlreadyMessaged(t *testing.T) {
	store := newStubMessageStore()
	seedComment(store, "sold A001")
	store.alreadySent[1] = true
	graph := &stubGraph{}

	coordinator := newTestCoordinator(store, &stubCart{}, graph)
	if err := coordinator.Coordinate(context.Background(), 1); err != nil {
		t.Fatalf("Coordinate() error = %v", err)
	}
	if len(graph.sent) != 0 {
		t.Fatalf("expected no sends, got %d", len(graph.sent))
	}
}

func TestCoordinateSkipsPageOwnComments(t *testing.T) {
	store := newStubMessageStore()
	comment := seedComment(store, "sold A001")
	comment.IsFromPage = true
	graph := &stubGraph{}

	coordinator := newTestCoordinator(store, &stubCart{}, graph)
	if err := coordinator.Coordinate(context.Background(), 1); err != nil {
		t.Fatalf("Coordinate() error = %v", err)
	}
	if len(graph.sent) != 0 {
		t.Fatalf("expected no sends, got %d", len(graph.sent))
	}
}

func TestCoordinateNoProductsIsNoOp(t *testing.T) {
	store := newStubMessageStore()
	seedComment(store, "lovely stream!")
	graph := &stubGraph{}

	coordinator := newTestCoordinator(store, &stubCart{}, graph)
	if err := coordinator.Coordinate(context.Background(), 1); err != nil {
		t.Fatalf("Coordinate() error = %v", err)
	}
	if len(graph.sent) != 0 {
		t.Fatalf("expected no sends, got %d", len(graph.sent))
	}
}

func TestCoordinateBrowseForUnknownCustomerWithoutIntent(t *testing.T) {
	store := newStubMessageStore()
	seedComment(store, "is A001 still available?")
	store.productsByTag["A001"] = []models.Product{testProduct(5, 100, "A001")}
	graph := &stubGraph{}

	coordinator := newTestCoordinator(store, &stubCart{}, graph)
	if err := coordinator.Coordinate(context.Background(), 1); err != nil {
		t.Fatalf("Coordinate() error = %v", err)
	}
	if len(graph.sent) != 1 {
		t.Fatalf("sends = %d, want 1", len(graph.sent))
	}

	elements := graph.sent[0].Message.Attachment.Payload.Elements
	if len(elements) != 1 {
		t.Fatalf("elements = %d, want 1", len(elements))
	}
	if len(elements[0].Buttons) != 0 {
		t.Fatalf("browse message should carry no buttons, got %+v", elements[0].Buttons)
	}
	if elements[0].Subtitle != "A nice product." {
		t.Fatalf("subtitle = %q, want short description", elements[0].Subtitle)
	}
	if got := elements[0].DefaultAction.URL; got != "https://shop.example/products/product-A001" {
		t.Fatalf("default action url = %q", got)
	}
	if len(store.sentMessages) != 1 || store.sentMessages[0].CommentID != 1 {
		t.Fatalf("private message rows = %+v", store.sentMessages)
	}
	if store.sentMessages[0].PageID != "page" {
		t.Fatalf("page id = %q, want page", store.sentMessages[0].PageID)
	}
}

func TestCoordinatePromptsKnownCustomerToReserve(t *testing.T) {
	store := newStubMessageStore()
	seedComment(store, "sold!")
	message := "Going live with A001 tonight"
	store.posts["page_post"] = &models.Post{FacebookID: "page_post", Message: &message}
	store.productsByTag["A001"] = []models.Product{testProduct(5, 100, "A001")}
	cart := &stubCart{customers: map[string]*smartcart.Customer{
		"Jane Doe": {ID: 77, Name: "Jane Doe"},
	}}
	graph := &stubGraph{}

	coordinator := newTestCoordinator(store, cart, graph)
	if err := coordinator.Coordinate(context.Background(), 1); err != nil {
		t.Fatalf("Coordinate() error = %v", err)
	}
	if len(graph.sent) != 1 {
		t.Fatalf("sends = %d, want 1", len(graph.sent))
	}

	buttons := graph.sent[0].Message.Attachment.Payload.Elements[0].Buttons
	if len(buttons) != 1 || buttons[0].Type != "postback" || buttons[0].Title != "Reserve" {
		t.Fatalf("buttons = %+v, want one Reserve postback", buttons)
	}
	if len(cart.reserved) != 0 {
		t.Fatalf("prompt must not reserve, reserved %v", cart.reserved)
	}
}

func TestCoordinateAuthorizePromptForUnknownReserver(t *testing.T) {
	store := newStubMessageStore()
	seedComment(store, "reserve A001 please")
	store.productsByTag["A001"] = []models.Product{testProduct(5, 100, "A001")}
	graph := &stubGraph{}

	coordinator := newTestCoordinator(store, &stubCart{}, graph)
	if err := coordinator.Coordinate(context.Background(), 1); err != nil {
		t.Fatalf("Coordinate() error = %v", err)
	}
	if len(graph.sent) != 1 {
		t.Fatalf("sends = %d, want 1", len(graph.sent))
	}

	buttons := graph.sent[0].Message.Attachment.Payload.Elements[0].Buttons
	if len(buttons) != 1 || buttons[0].Type != "web_url" {
		t.Fatalf("buttons = %+v, want one web_url", buttons)
	}
	link, err := url.Parse(buttons[0].URL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	query := link.Query()
	if query.Get("name") != "Jane Doe" || query.Get("product") != "100" {
		t.Fatalf("auth url query = %v", query)
	}
}

func TestCoordinateReservesForKnownCustomer(t *testing.T) {
	store := newStubMessageStore()
	seedComment(store, "reserve A001")
	store.productsByTag["A001"] = []models.Product{testProduct(5, 100, "A001")}
	cart := &stubCart{customers: map[string]*smartcart.Customer{
		"Jane Doe": {ID: 77, Name: "Jane Doe"},
	}}
	graph := &stubGraph{}

	coordinator := newTestCoordinator(store, cart, graph)
	if err := coordinator.Coordinate(context.Background(), 1); err != nil {
		t.Fatalf("Coordinate() error = %v", err)
	}
	if len(cart.reserved) != 1 || cart.reserved[0] != 100 {
		t.Fatalf("reserved = %v, want [100]", cart.reserved)
	}
	if len(graph.sent) != 1 {
		t.Fatalf("sends = %d, want 1", len(graph.sent))
	}
	subtitle := graph.sent[0].Message.Attachment.Payload.Elements[0].Subtitle
	if subtitle != "The product has been reserved. Please check your cart." {
		t.Fatalf("subtitle = %q", subtitle)
	}
}

func TestCoordinateReadsParentWhenReplyingToPage(t *testing.T) {
	store := newStubMessageStore()
	comment := seedComment(store, "sold")
	comment.ParentID = "c-parent"
	store.pageComments["c-parent"] = true
	store.byFacebookID["c-parent"] = &models.Comment{
		ID:         2,
		FacebookID: "c-parent",
		PostID:     "page_post",
		Message:    "Last chance for A001!",
		IsFromPage: true,
	}
	store.productsByTag["A001"] = []models.Product{testProduct(5, 100, "A001")}
	graph := &stubGraph{}

	coordinator := newTestCoordinator(store, &stubCart{}, graph)
	if err := coordinator.Coordinate(context.Background(), 1); err != nil {
		t.Fatalf("Coordinate() error = %v", err)
	}
	if len(graph.sent) != 1 {
		t.Fatalf("sends = %d, want 1", len(graph.sent))
	}
}
