package domain

var Tables = []interface{}{
	// Catalog
	&Product{},
	// Fulfillment
	&CartItem{},
	&Demand{},
	&Order{},
	&Transaction{},
}
