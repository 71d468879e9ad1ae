package registry

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/qmcao/spending-tracker/internal/storage"
)

// CustomCategoriesKey is the storage key for the persisted custom-category
// list. Independent from the transactions key.
const CustomCategoriesKey = "custom_categories"

var (
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrDuplicateCategory = errors.New("duplicate category")
)

// DefaultCategories is the fixed built-in suggestion list. Not persisted.
func DefaultCategories() []string {
	return []string{
		"Groceries",
		"Dining",
		"Transport",
		"Housing",
		"Utilities",
		"Health",
		"Entertainment",
		"Travel",
		"Shopping",
		"Pets",
		"Other",
	}
}

// Categories exposes the effective category set: built-ins first, then custom
// categories in addition order, deduplicated case-sensitively.
type Categories struct {
	mu       sync.Mutex
	store    *storage.Store
	builtins []string
	custom   []string
}

// NewCategories loads the persisted custom list from the store. Corrupt or
// missing payloads read as an empty custom list.
func NewCategories(store *storage.Store, builtins []string) *Categories {
	c := &Categories{store: store, builtins: builtins}

	data := store.Get(CustomCategoriesKey)
	if len(data) == 0 {
		return c
	}
	var custom []string
	if err := json.Unmarshal(data, &custom); err != nil {
		slog.Warn("Corrupt custom-category payload, starting empty", "error", err)
		return c
	}
	c.custom = custom
	return c
}

// All returns the deduplicated union, preserving first-seen order.
func (c *Categories) All() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return dedupe(append(append([]string(nil), c.builtins...), c.custom...))
}

// AddCustom appends a custom category and persists the custom list. Names that
// trim to empty or already exist anywhere in the effective set are rejected
// without mutation.
func (c *Categories) AddCustom(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.builtins {
		if existing == name {
			return ErrDuplicateCategory
		}
	}
	for _, existing := range c.custom {
		if existing == name {
			return ErrDuplicateCategory
		}
	}

	c.custom = append(c.custom, name)
	c.persist()
	return nil
}

// Custom returns only the user-added categories, in addition order.
func (c *Categories) Custom() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.custom...)
}

func (c *Categories) persist() {
	data, err := json.Marshal(c.custom)
	if err != nil {
		slog.Error("Marshal custom categories failed", "error", err)
		return
	}
	c.store.Put(CustomCategoriesKey, data)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
