package app

import (
	"github.com/openmart/storecore/config"
	"github.com/openmart/storecore/internal/cart"
	"github.com/openmart/storecore/internal/checkout"
	"github.com/openmart/storecore/internal/demand"
	"github.com/openmart/storecore/internal/inventory"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// FulfillmentProvider provides access to the fulfillment services
type FulfillmentProvider interface {
	Inventory() *inventory.Service
	Carts() *cart.Service
	Demands() *demand.Service
	Checkout() *checkout.Service
}

// AppContext combines all provider interfaces for full application context
// Callers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	FulfillmentProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
