package menu

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrDuplicateID = errors.New("menu: duplicate item id")
	ErrReservedID  = errors.New("menu: item id collides with a command")
	ErrInvalidItem = errors.New("menu: item needs a positive id, a name and a non-negative price")
)

// Reserved command tokens. Catalog ids must never take one of these values.
const (
	CommandCancel   = "0"
	CommandList     = "1"
	CommandCurrent  = "97"
	CommandHistory  = "98"
	CommandCheckout = "99"
)

var reserved = map[string]struct{}{
	CommandCancel:   {},
	CommandList:     {},
	CommandCurrent:  {},
	CommandHistory:  {},
	CommandCheckout: {},
}

// IsReserved reports whether token is one of the command tokens.
func IsReserved(token string) bool {
	_, ok := reserved[token]
	return ok
}

type Item struct {
	ID    int
	Name  string
	Price int64
}

// Key is the text a user types to pick the item.
func (i Item) Key() string { return strconv.Itoa(i.ID) }

// Catalog is an immutable, ordered list of orderable items.
type Catalog struct {
	items []Item
	byKey map[string]Item
}

func New(items ...Item) (*Catalog, error) {
	c := &Catalog{
		items: make([]Item, 0, len(items)),
		byKey: make(map[string]Item, len(items)),
	}
	for _, it := range items {
		if it.ID <= 0 || it.Name == "" || it.Price < 0 {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidItem, it)
		}
		key := it.Key()
		if IsReserved(key) {
			return nil, fmt.Errorf("%w: %d", ErrReservedID, it.ID)
		}
		if _, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, it.ID)
		}
		c.items = append(c.items, it)
		c.byKey[key] = it
	}
	return c, nil
}

// MustNew is like New but panics on an invalid catalog.
func MustNew(items ...Item) *Catalog {
	c, err := New(items...)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the restaurant's fixed catalog.
func Default() *Catalog {
	return MustNew(
		Item{ID: 10, Name: "Margherita Pizza", Price: 3500},
		Item{ID: 20, Name: "Cheeseburger", Price: 1800},
		Item{ID: 30, Name: "Jollof Rice (Large)", Price: 2200},
		Item{ID: 40, Name: "Fried Plantain + Egg", Price: 700},
		Item{ID: 50, Name: "Coke (330ml)", Price: 300},
	)
}

// Items returns a copy of the catalog in display order.
func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

func (c *Catalog) Len() int { return len(c.items) }

// Lookup matches key exactly against the item ids.
func (c *Catalog) Lookup(key string) (Item, bool) {
	it, ok := c.byKey[key]
	return it, ok
}
