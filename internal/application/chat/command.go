package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-chatbot/internal/domain/menu"
)

// ErrUnknownCommand marks input that is neither a command nor a catalog id.
// It never leaves the interpreter; the client gets a reply line instead.
var ErrUnknownCommand = errors.New("chat: unknown command")

type Kind string

const (
	KindMenu     Kind = "menu"
	KindList     Kind = "list"
	KindCheckout Kind = "checkout"
	KindHistory  Kind = "history"
	KindCurrent  Kind = "current"
	KindCancel   Kind = "cancel"
	KindAddItem  Kind = "add_item"
	KindInvalid  Kind = "invalid"
)

type Command struct {
	Kind Kind
	Item menu.Item
}

// Parse classifies trimmed input. Commands take priority over catalog ids.
func Parse(catalog *menu.Catalog, input string) (Command, error) {
	msg := strings.TrimSpace(input)
	switch msg {
	case "":
		return Command{Kind: KindMenu}, nil
	case menu.CommandList:
		return Command{Kind: KindList}, nil
	case menu.CommandCheckout:
		return Command{Kind: KindCheckout}, nil
	case menu.CommandHistory:
		return Command{Kind: KindHistory}, nil
	case menu.CommandCurrent:
		return Command{Kind: KindCurrent}, nil
	case menu.CommandCancel:
		return Command{Kind: KindCancel}, nil
	}
	if it, ok := catalog.Lookup(msg); ok {
		return Command{Kind: KindAddItem, Item: it}, nil
	}
	return Command{Kind: KindInvalid}, fmt.Errorf("%w: %q", ErrUnknownCommand, msg)
}
