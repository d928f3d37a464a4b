package domain

import "time"

type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	OwnerID     string
	Owner       UserRef // populated on reads
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
