package service

import "context"

// Transactor runs fn inside one storage transaction. Repository calls made
// with the context passed to fn share that transaction, and an error from
// fn rolls all of them back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
