// Package txn models units of work as values. An operation is built as an
// Op and only later executed inside a transaction, which lets wrappers
// decorate it — the rate limiter injects its admission check in front of
// an inner Op without knowing anything about it.
package txn

import (
	"gorm.io/gorm"
)

// Op is a unit of work executed against a transaction handle. The handle
// carries the request context; an Op must not commit, roll back or spawn
// nested transactions itself.
type Op func(tx *gorm.DB) error

// Sequence chains ops into a single Op, stopping at the first error.
func Sequence(ops ...Op) Op {
	return func(tx *gorm.DB) error {
		for _, op := range ops {
			if op == nil {
				continue
			}
			if err := op(tx); err != nil {
				return err
			}
		}
		return nil
	}
}

// Nop is an Op that does nothing.
func Nop() Op {
	return func(*gorm.DB) error { return nil }
}
