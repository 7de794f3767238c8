package models

import "gorm.io/gorm"

// PropertyTypeHelp is admin-seeded help content shown on the property help
// page, one entry per property type.
type PropertyTypeHelp struct {
	gorm.Model
	PropertyType string `json:"propertyType" gorm:"size:20;uniqueIndex"`
	Title        string `json:"title" gorm:"size:255"`
	Description  string `json:"description" gorm:"type:text"`
	ImageURL     string `json:"imageURL" gorm:"size:500"`
	Content      string `json:"content" gorm:"type:text"`
	Order        int    `json:"order" gorm:"default:0"`
	IsActive     bool   `json:"isActive" gorm:"default:true"`
}
