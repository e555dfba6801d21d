package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	gorm.Model
	Name          string          `json:"name" binding:"required"`
	Slug          string          `json:"slug" binding:"required" gorm:"size:191;uniqueIndex"`
	Description   string          `json:"description"`
	SellingPrice  decimal.Decimal `json:"sellingPrice" gorm:"type:decimal(10,2)"`
	GSTPercentage decimal.Decimal `json:"gstPercentage" gorm:"type:decimal(5,2)"`
	// Stock is never negative and is only mutated through the stock ledger.
	Stock    uint `json:"stock"`
	IsActive bool `json:"isActive" gorm:"default:true"`
}
