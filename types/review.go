package types

import "time"

// Review is a customer rating of a product. Reviews are hidden until approved.
type Review struct {
	ID        int       `json:"id" db:"id"`
	ProductID int       `json:"productId" db:"product_id"`
	UserID    int       `json:"userId" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	Approved  bool      `json:"isApproved" db:"is_approved"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
