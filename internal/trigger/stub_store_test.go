package trigger

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"livecart/internal/models"
	"livecart/internal/repository"
)

// stubTriggerStore is a test-only in-memory repository.TriggerStore.
type stubTriggerStore struct {
	products       map[uint64]*models.Product
	codesByProduct map[uint64]string
	skuByProduct   map[uint64]string
	assigned       map[string]struct{}
	released       map[uint64]models.ReleasedTrigger
	nextReleasedID uint64

	tagsByID    map[uint64]models.Tag
	createdTags []models.Tag
	deletedTags []uint64
}

func newStubTriggerStore() *stubTriggerStore {
	return &stubTriggerStore{
		products:       map[uint64]*models.Product{},
		codesByProduct: map[uint64]string{},
		skuByProduct:   map[uint64]string{},
		assigned:       map[string]struct{}{},
		released:       map[uint64]models.ReleasedTrigger{},
		tagsByID:       map[uint64]models.Tag{},
	}
}

func (s *stubTriggerStore) InTx(ctx context.Context, fn func(tx repository.TriggerStore) error) error {
	return fn(s)
}

func (s *stubTriggerStore) InSerializableTx(ctx context.Context, fn func(tx repository.TriggerStore) error) error {
	return fn(s)
}

func (s *stubTriggerStore) GetProductByID(ctx context.Context, id uint64) (*models.Product, error) {
	return s.products[id], nil
}

func (s *stubTriggerStore) GetProductTriggerCode(ctx context.Context, productID uint64) (string, error) {
	return s.codesByProduct[productID], nil
}

func (s *stubTriggerStore) FirstVariantSKU(ctx context.Context, productID uint64) (string, error) {
	return s.skuByProduct[productID], nil
}

func (s *stubTriggerStore) ListSystemTagCodes(ctx context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(s.assigned))
	for code := range s.assigned {
		out[code] = struct{}{}
	}
	return out, nil
}

func (s *stubTriggerStore) ListSystemTagIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	for id, tag := range s.tagsByID {
		if tag.IsSystemTag {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *stubTriggerStore) ListTagsByIDs(ctx context.Context, ids []uint64) ([]models.Tag, error) {
	var out []models.Tag
	for _, id := range ids {
		if tag, ok := s.tagsByID[id]; ok {
			out = append(out, tag)
		}
	}
	return out, nil
}

func (s *stubTriggerStore) DeleteTagsByIDs(ctx context.Context, ids []uint64) error {
	for _, id := range ids {
		delete(s.tagsByID, id)
		s.deletedTags = append(s.deletedTags, id)
	}
	return nil
}

func (s *stubTriggerStore) CreateTag(ctx context.Context, item *models.Tag) error {
	s.createdTags = append(s.createdTags, *item)
	if item.IsSystemTag {
		s.assigned[item.Name] = struct{}{}
		s.codesByProduct[item.ProductID] = item.Name
	}
	return nil
}

func (s *stubTriggerStore) FindSmallestReleasedTrigger(ctx context.Context, letters []string) (*models.ReleasedTrigger, error) {
	pattern := regexp.MustCompile("^[" + strings.Join(letters, "") + "][0-9]{3}$")
	var best *models.ReleasedTrigger
	for id := range s.released {
		item := s.released[id]
		if !pattern.MatchString(item.Name) {
			continue
		}
		if best == nil || item.Name < best.Name {
			copied := item
			best = &copied
		}
	}
	return best, nil
}

func (s *stubTriggerStore) CreateReleasedTrigger(ctx context.Context, item *models.ReleasedTrigger) error {
	s.nextReleasedID++
	item.ID = s.nextReleasedID
	s.released[item.ID] = *item
	return nil
}

func (s *stubTriggerStore) DeleteReleasedTrigger(ctx context.Context, id uint64) error {
	delete(s.released, id)
	return nil
}

// stubCatalog records remote label calls.
type stubCatalog struct {
	added   []string
	removed []string
}

func (s *stubCatalog) AddProductTag(ctx context.Context, productID int64, tag string) error {
	s.added = append(s.added, tag)
	return nil
}

func (s *stubCatalog) RemoveProductTag(ctx context.Context, productID int64, tag string) error {
	s.removed = append(s.removed, tag)
	return nil
}
