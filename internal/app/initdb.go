package app

import (
	"time"

	"github.com/openmart/storecore/internal/domain"
	"github.com/openmart/storecore/pkg/common"
	"go.uber.org/zap"
)

// checkProducts initializes demo catalog entries on an empty store
func (a *Application) checkProducts() {
	defaultProducts := []domain.Product{
		{Name: "demo-widget-basic", Type: "electronics", Info: "Entry level demo widget", Price: 9.99, Quantity: 100},
		{Name: "demo-widget-pro", Type: "electronics", Info: "Professional demo widget", Price: 24.5, Quantity: 50},
		{Name: "demo-mug", Type: "kitchen", Info: "Store branded mug", Price: 4.95, Quantity: 200},
	}

	for _, p := range defaultProducts {
		var count int64
		a.gormDB.Model(&domain.Product{}).Where("pname = ?", p.Name).Count(&count)
		if count == 0 {
			p.ID = common.ProductID()
			p.CreatedAt = time.Now()
			p.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&p).Error; err != nil {
				zap.L().Error("failed to create default product", zap.String("pname", p.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized default product", zap.String("pid", p.ID), zap.String("pname", p.Name))
			}
		}
	}
}
