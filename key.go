package notifier

import "math"

// Token is the non-negative integer image of a caller's Key, used as the
// registration identity inside [pollCore]. See [Notifier] for the
// to-token/from-token capability pair a caller supplies at construction.
type Token uint64

// reservedToken is set aside for the DeadlineTimer's own registration; a
// Key whose ToToken mapping produces this value is a programmer error
// (fatal, see [Notifier.tokenFor]).
const reservedToken Token = math.MaxUint64 - 1

// KeyCodec is the capability pair a caller supplies to bridge their own Key
// type to the non-negative integer token space [pollCore] operates on. The
// mapping must be total and injective; ToToken must never return
// [reservedToken].
//
// Per the design notes, this is deliberately a pair of plain functions
// rather than an interface tied to any particular container or dispatch
// machinery the caller might otherwise be forced to adopt.
type KeyCodec[K any] struct {
	ToToken   func(K) Token
	FromToken func(Token) K
}
