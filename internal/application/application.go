package application

import "context"

// UseCase is one inbound operation of the bot: a chat message or a payment
// callback. The HTTP layer depends on this shape only, so handlers can be
// tested against stubs.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}
