package domain

import "time"

// CartItem is one (user, product) line in the pre-checkout staging area.
// A persisted line always has Quantity > 0; zero means the line is deleted.
type CartItem struct {
	UserID    string    `gorm:"primaryKey;size:100;column:username" json:"username"`
	ProductID string    `gorm:"primaryKey;size:40;column:prodid" json:"prodid"`
	Quantity  int       `gorm:"column:quantity" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (CartItem) TableName() string {
	return "usercart"
}
