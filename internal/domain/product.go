package domain

import "time"

// Product is a catalog item with its available stock quantity.
type Product struct {
	ID        string    `gorm:"primaryKey;size:40;column:pid" json:"pid"`
	Name      string    `gorm:"index;size:100;column:pname" json:"pname"`
	Type      string    `gorm:"index;size:30;column:ptype" json:"ptype"`
	Info      string    `gorm:"size:350;column:pinfo" json:"pinfo"`
	Price     float64   `gorm:"column:pprice" json:"pprice"`
	Quantity  int       `gorm:"column:pquantity" json:"pquantity"`
	Image     []byte    `gorm:"column:image" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}
