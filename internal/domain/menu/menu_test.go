package menu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/menu"
)

func TestDefaultCatalog(t *testing.T) {
	c := menu.Default()
	require.Equal(t, 5, c.Len())

	for _, it := range c.Items() {
		assert.False(t, menu.IsReserved(it.Key()), "item %d uses a command token", it.ID)
	}

	pizza, ok := c.Lookup("10")
	require.True(t, ok)
	assert.Equal(t, "Margherita Pizza", pizza.Name)
	assert.EqualValues(t, 3500, pizza.Price)

	_, ok = c.Lookup(" 10")
	assert.False(t, ok)
	_, ok = c.Lookup("010")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		items   []menu.Item
		wantErr error
	}{
		{
			name:  "valid",
			items: []menu.Item{{ID: 2, Name: "Tea", Price: 100}, {ID: 3, Name: "Bun", Price: 0}},
		},
		{
			name:    "duplicate id",
			items:   []menu.Item{{ID: 2, Name: "Tea", Price: 100}, {ID: 2, Name: "Bun", Price: 50}},
			wantErr: menu.ErrDuplicateID,
		},
		{
			name:    "reserved id",
			items:   []menu.Item{{ID: 99, Name: "Tea", Price: 100}},
			wantErr: menu.ErrReservedID,
		},
		{
			name:    "missing name",
			items:   []menu.Item{{ID: 2, Price: 100}},
			wantErr: menu.ErrInvalidItem,
		},
		{
			name:    "negative price",
			items:   []menu.Item{{ID: 2, Name: "Tea", Price: -1}},
			wantErr: menu.ErrInvalidItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := menu.New(tt.items...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.items, c.Items())
		})
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	c := menu.Default()
	items := c.Items()
	items[0].Name = "changed"

	first, _ := c.Lookup("10")
	assert.Equal(t, "Margherita Pizza", first.Name)
	assert.Equal(t, "Margherita Pizza", c.Items()[0].Name)
}
