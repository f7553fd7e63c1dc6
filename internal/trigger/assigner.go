package trigger

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"livecart/internal/models"
	"livecart/internal/repository"
)

const (
	minNumber = 1
	maxNumber = 999

	// Prefix carried by trigger labels on the remote catalog. Local
	// system tags store the bare code.
	LabelPrefix = "trigger-"
)

// CodePattern matches a trigger code: one uppercase letter followed by
// three digits.
var CodePattern = regexp.MustCompile(`^[A-Z][0-9]{3}$`)

// DefaultSequences maps a SKU prefix to the letters tried, in order,
// when allocating a code. "O" never appears in any sequence.
var DefaultSequences = map[string][]string{
	"P2":      {"N", "M", "P", "Q"},
	"P4":      {"R", "S", "T"},
	"P5":      {"E", "F", "G"},
	"P7":      {"H", "I", "J"},
	"P9":      {"B", "C", "D"},
	"default": {"A", "Z", "Y", "X"},
}

// ExhaustedError reports that every code in the SKU's letter sequence
// is taken.
type ExhaustedError struct {
	SKU string
}

func (e *ExhaustedError) Error() string {
	return "no available trigger codes for sku pattern: " + e.SKU
}

type CatalogClient interface {
	AddProductTag(ctx context.Context, productID int64, tag string) error
	RemoveProductTag(ctx context.Context, productID int64, tag string) error
}

// Assigner allocates trigger codes to products.
type Assigner struct {
	Repo      repository.TriggerStore
	Catalog   CatalogClient
	Logger    *zap.Logger
	Sequences map[string][]string
}

// Assign gives the product a trigger code and labels the remote catalog
// entry with it. Idempotent: a product that already carries a code gets
// the same code back. When sku is empty the product's first variant SKU
// decides the letter sequence.
func (a *Assigner) Assign(ctx context.Context, productID uint64, sku string) (string, error) {
	product, err := a.Repo.GetProductByID(ctx, productID)
	if err != nil {
		return "", err
	}
	if product == nil {
		return "", fmt.Errorf("assign trigger: product %d not found", productID)
	}

	if sku == "" {
		sku, err = a.Repo.FirstVariantSKU(ctx, productID)
		if err != nil {
			return "", err
		}
	}

	var code string
	allocated := false
	err = a.Repo.InSerializableTx(ctx, func(tx repository.TriggerStore) error {
		existing, err := tx.GetProductTriggerCode(ctx, productID)
		if err != nil {
			return err
		}
		if existing != "" {
			code = existing
			return nil
		}

		code, err = a.nextCode(ctx, tx, sku)
		if err != nil {
			return err
		}
		allocated = true
		return tx.CreateTag(ctx, &models.Tag{
			Name:        code,
			ProductID:   productID,
			IsSystemTag: true,
		})
	})
	if err != nil {
		return "", err
	}
	if !allocated {
		a.Logger.Info("existing trigger code found",
			zap.Uint64("product_id", productID),
			zap.String("code", code))
		return code, nil
	}

	if err := a.Catalog.AddProductTag(ctx, product.ShopifyID, LabelPrefix+code); err != nil {
		a.Logger.Error("label remote product",
			zap.Uint64("product_id", productID),
			zap.String("code", code),
			zap.Error(err))
		return "", err
	}

	a.Logger.Info("assigned trigger code",
		zap.Uint64("product_id", productID),
		zap.String("code", code),
		zap.String("sku", sku))
	return code, nil
}

// nextCode prefers the smallest released code whose letter belongs to
// the SKU's sequence, then falls back to generating a fresh one.
func (a *Assigner) nextCode(ctx context.Context, tx repository.TriggerStore, sku string) (string, error) {
	letters := a.lettersFor(sku)

	released, err := tx.FindSmallestReleasedTrigger(ctx, letters)
	if err != nil {
		return "", err
	}
	if released != nil {
		if err := tx.DeleteReleasedTrigger(ctx, released.ID); err != nil {
			return "", err
		}
		a.Logger.Info("recycled released trigger",
			zap.String("code", released.Name),
			zap.String("sku", sku))
		return released.Name, nil
	}

	assigned, err := tx.ListSystemTagCodes(ctx)
	if err != nil {
		return "", err
	}
	for _, letter := range letters {
		for n := minNumber; n <= maxNumber; n++ {
			code := fmt.Sprintf("%s%03d", letter, n)
			if _, taken := assigned[code]; !taken {
				return code, nil
			}
		}
	}
	return "", &ExhaustedError{SKU: sku}
}

func (a *Assigner) lettersFor(sku string) []string {
	sequences := a.Sequences
	if len(sequences) == 0 {
		sequences = DefaultSequences
	}
	if sku == "" {
		return sequenceOrDefault(sequences, "default")
	}
	prefix := strings.ToUpper(sku)
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	if seq := sequenceOrDefault(sequences, prefix); seq != nil {
		return seq
	}
	return sequenceOrDefault(sequences, "default")
}

// sequenceOrDefault tolerates lowercased keys, which is how viper hands
// map keys back.
func sequenceOrDefault(sequences map[string][]string, key string) []string {
	if seq, ok := sequences[key]; ok {
		return seq
	}
	if seq, ok := sequences[strings.ToLower(key)]; ok {
		return seq
	}
	if key != "default" {
		return nil
	}
	return DefaultSequences["default"]
}
