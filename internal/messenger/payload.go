package messenger

import "encoding/json"

// Recipient addresses a Messenger send. A commenter recipient replies
// privately to a comment, a user recipient targets a messenger user id.
// The two render to different JSON shapes, decided here and nowhere
// else.
type Recipient struct {
	commentID string
	userID    string
}

func CommenterRecipient(commentFacebookID string) Recipient {
	return Recipient{commentID: commentFacebookID}
}

func UserRecipient(facebookUserID string) Recipient {
	return Recipient{userID: facebookUserID}
}

func (r Recipient) MarshalJSON() ([]byte, error) {
	if r.commentID != "" {
		return json.Marshal(map[string]string{"comment_id": r.commentID})
	}
	return json.Marshal(map[string]string{"id": r.userID})
}

// Payload is the full body posted to the Messenger send API.
type Payload struct {
	Recipient Recipient `json:"recipient"`
	Message   Message   `json:"message"`
}

type Message struct {
	Attachment Attachment `json:"attachment"`
}

type Attachment struct {
	Type    string   `json:"type"`
	Payload Template `json:"payload"`
}

type Template struct {
	TemplateType string    `json:"template_type"`
	Elements     []Element `json:"elements"`
}

type Element struct {
	Title         string   `json:"title"`
	ImageURL      string   `json:"image_url,omitempty"`
	Subtitle      string   `json:"subtitle,omitempty"`
	DefaultAction *Action  `json:"default_action,omitempty"`
	Buttons       []Button `json:"buttons,omitempty"`
}

type Action struct {
	Type               string `json:"type"`
	URL                string `json:"url"`
	WebviewHeightRatio string `json:"webview_height_ratio,omitempty"`
}

type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// Postback actions carried in template buttons.
const (
	ActionReserveProduct = "RESERVE_PRODUCT"
	ActionAddToWaitList  = "ADD_TO_WAITLIST"
)

// ButtonPayload is the JSON blob round-tripped through a postback
// button.
type ButtonPayload struct {
	Action    string `json:"action"`
	ProductID uint64 `json:"productId"`
	CommentID uint64 `json:"commentId"`
}

func genericTemplate(recipient Recipient, elements []Element) Payload {
	return Payload{
		Recipient: recipient,
		Message: Message{
			Attachment: Attachment{
				Type: "template",
				Payload: Template{
					TemplateType: "generic",
					Elements:     elements,
				},
			},
		},
	}
}
