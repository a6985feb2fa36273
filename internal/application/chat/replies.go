package chat

import (
	"fmt"

	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/menu"
	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/order"
)

const (
	msgListHeader      = "Select item number to add to your order:"
	msgNothingToPlace  = "No order to place. Type 1 to start an order."
	msgOrderPlaced     = "✅ Order placed successfully!"
	msgPaymentFailed   = "Payment initialization failed. Please try again."
	msgNoHistory       = "No order history yet."
	msgCurrentHeader   = "Current order:"
	msgNoCurrent       = "No current order."
	msgCancelled       = "❌ Current order cancelled."
	msgSelectMore      = "Select more items or type 99 to checkout."
	msgInvalidInput    = "Invalid input. Try again."
	msgOrderTotalFmt   = "Your order total is %d."
	msgPaymentLinkFmt  = "Complete your payment here: %s"
	msgAddedFmt        = "Added %s to order."
	msgHistoryEntryFmt = "Order %d: %s"
)

// MainMenu is the greeting shown on empty input and after terminal actions.
func MainMenu() []string {
	return []string{
		"Welcome to Dummy Restaurant Bot 🍽️",
		"Select 1 to Place an order",
		"Select 99 to Checkout order",
		"Select 98 to See order history",
		"Select 97 to See current order",
		"Select 0 to Cancel order",
	}
}

func withMenu(lines ...string) []string {
	return append(lines, MainMenu()...)
}

func listing(catalog *menu.Catalog) []string {
	items := catalog.Items()
	out := make([]string, 0, len(items)+1)
	out = append(out, msgListHeader)
	for _, it := range items {
		out = append(out, fmt.Sprintf("%d. %s - %d", it.ID, it.Name, it.Price))
	}
	return out
}

func history(orders []order.Items) []string {
	out := make([]string, 0, len(orders))
	for i, o := range orders {
		out = append(out, fmt.Sprintf(msgHistoryEntryFmt, i+1, o.Names()))
	}
	return out
}

func paymentLink(total int64, url string) []string {
	return []string{
		fmt.Sprintf(msgOrderTotalFmt, total),
		fmt.Sprintf(msgPaymentLinkFmt, url),
	}
}
