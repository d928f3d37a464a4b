package domain

import "time"

// CartItem is an entry in a user's cart.
type CartItem struct {
	ID          string
	Item        string
	Description string
	Price       float64
	OwnerID     string
	Owner       UserRef // populated on reads
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
