package domain

import "time"

// Order is one product line within a transaction. Its id is the owning
// transaction's id; an order has no life independent of its transaction.
// Amount is captured at sale time and never recomputed.
type Order struct {
	TransactionID string  `gorm:"primaryKey;size:40;column:orderid" json:"orderid"`
	ProductID     string  `gorm:"primaryKey;size:40;column:prodid" json:"prodid"`
	Quantity      int     `gorm:"column:quantity" json:"quantity"`
	Amount        float64 `gorm:"column:amount" json:"amount"`
	Shipped       bool    `gorm:"column:shipped" json:"shipped"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "orders"
}

// Transaction is the financial record of a completed checkout. It owns one or
// more orders keyed by its id.
type Transaction struct {
	ID     string    `gorm:"primaryKey;size:40;column:transid" json:"transid"`
	UserID string    `gorm:"index;size:100;column:username" json:"username"`
	Time   time.Time `gorm:"column:trans_time" json:"time"`
	Amount float64   `gorm:"column:amount" json:"amount"`
}

// TableName Specify table name
func (Transaction) TableName() string {
	return "transactions"
}

// OrderDetail is the orders x transactions x products projection used for
// per-user order history.
type OrderDetail struct {
	OrderID     string    `json:"orderid"`
	ProductID   string    `json:"prodid"`
	ProductName string    `json:"pname"`
	Image       []byte    `json:"-"`
	Quantity    int       `json:"quantity"`
	Amount      float64   `json:"amount"`
	Time        time.Time `json:"time"`
	Shipped     bool      `json:"shipped"`
}
