package domain

import "time"

// Demand records a user's unmet demand for a product so it can be resolved
// when stock returns. At most one outstanding row per (user, product).
type Demand struct {
	UserID    string    `gorm:"primaryKey;size:100;column:username" json:"username"`
	ProductID string    `gorm:"primaryKey;size:40;column:prodid" json:"prodid"`
	Quantity  int       `gorm:"column:quantity" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (Demand) TableName() string {
	return "user_demand"
}
