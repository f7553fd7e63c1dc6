package messenger

import (
	"context"
	"regexp"
	"strings"

	"livecart/internal/models"
)

// Free text references at most this many products.
const maxReferencedProducts = 10

var tokenSanitizer = regexp.MustCompile(`[^A-Za-z0-9-]`)

// tokenize flattens the text to single-line words stripped of anything
// outside letters, digits and dashes. Matching against tag names is
// exact, so punctuation around a trigger code must go.
func tokenize(text string) []string {
	flat := strings.Join(strings.Split(text, "\n"), " ")
	words := strings.Fields(flat)
	out := make([]string, 0, len(words))
	for _, word := range words {
		word = tokenSanitizer.ReplaceAllString(word, "")
		if word != "" {
			out = append(out, word)
		}
	}
	return out
}

func (c *Coordinator) productsInText(ctx context.Context, text string) ([]models.Product, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}
	return c.Repo.FindProductsByTagNames(ctx, tokens, maxReferencedProducts)
}
