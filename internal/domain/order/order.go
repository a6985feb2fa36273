package order

import (
	"strings"

	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/menu"
)

// Items is an ordered list of menu items: either a cart in progress or a
// placed order snapshot.
type Items []menu.Item

// Total sums the item prices.
func (it Items) Total() int64 {
	var total int64
	for _, m := range it {
		total += m.Price
	}
	return total
}

// Names joins the item names with ", ".
func (it Items) Names() string {
	names := make([]string, 0, len(it))
	for _, m := range it {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}

func (it Items) Empty() bool { return len(it) == 0 }

// Clone returns a snapshot that does not share backing storage with it.
func (it Items) Clone() Items {
	if it == nil {
		return nil
	}
	return append(Items(nil), it...)
}
