package models

import "gorm.io/gorm"

// Review is left by a tenant for a landlord about a property. One review per
// (property, tenant) pair.
type Review struct {
	gorm.Model
	LandlordID uint     `json:"landlordID" gorm:"not null;index"`
	Landlord   User     `json:"landlord" gorm:"foreignKey:LandlordID"`
	TenantID   uint     `json:"tenantID" gorm:"not null;uniqueIndex:idx_review_property_tenant"`
	Tenant     User     `json:"tenant" gorm:"foreignKey:TenantID"`
	PropertyID uint     `json:"propertyID" gorm:"not null;uniqueIndex:idx_review_property_tenant"`
	Property   Property `json:"property" gorm:"foreignKey:PropertyID"`
	Rating     int      `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment    string   `json:"comment" gorm:"type:text"`
}
