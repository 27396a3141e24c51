package domain

import "github.com/google/uuid"

// Cart maps product IDs to requested quantities for one user. It is an explicit
// value passed into and returned from cart operations; durable storage (if any)
// belongs to the caller, not the workflow code.
type Cart map[uuid.UUID]int

// UnitCount returns the total number of units across all lines
func (c Cart) UnitCount() int {
	count := 0
	for _, qty := range c {
		count += qty
	}
	return count
}

// IsEmpty reports whether the cart holds no lines
func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// Clone returns an independent copy of the cart
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for id, qty := range c {
		out[id] = qty
	}
	return out
}
