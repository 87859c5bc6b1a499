package models

import (
	"errors"

	"github.com/shopvd/backoffice/internal/constants"

	"gorm.io/gorm"
)

// EnsureCostDefaults 补齐税率与运费键值行
func EnsureCostDefaults(db *gorm.DB, taxRate float64, shippingFee int64) error {
	defaults := []CostConfig{
		{ItemName: constants.CostKeyTaxRate, DisplayName: "Thuế suất", ItemCost: NewDecimal(taxRate)},
		{ItemName: constants.CostKeyShippingFee, DisplayName: "Phí ship khách trả", ItemCost: NewDecimal(float64(shippingFee))},
	}
	for _, row := range defaults {
		var existing CostConfig
		err := db.Where("item_name = ?", row.ItemName).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		row := row
		if err := db.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
