package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Property struct {
	gorm.Model
	LandlordID   uint           `json:"landlordID" gorm:"not null;index"`
	Landlord     User           `json:"landlord" gorm:"foreignKey:LandlordID"`
	Title        string         `json:"title" gorm:"size:255;not null"`
	Description  string         `json:"description" gorm:"type:text"`
	Price        float64        `json:"price"` // monthly rent
	Location     string         `json:"location" gorm:"size:255;index"`
	ZipCode      string         `json:"zipCode" gorm:"size:20"`
	Latitude     *float64       `json:"latitude"`
	Longitude    *float64       `json:"longitude"`
	PropertyType string         `json:"propertyType" gorm:"size:20;index"` // APARTMENT, HOUSE, CONDO, TOWNHOUSE
	NumBedrooms  int            `json:"numBedrooms"`
	NumBathrooms int            `json:"numBathrooms"`
	Amenities    datatypes.JSON `json:"amenities"`

	// Premium listings are pinned to the top of search results
	IsPremium bool `json:"isPremium" gorm:"default:false;index"`

	ViewCount int `json:"viewCount" gorm:"default:0"`
	SaveCount int `json:"saveCount" gorm:"default:0"`

	Images  []PropertyImage `json:"images" gorm:"constraint:OnDelete:CASCADE"`
	Reviews []Review        `json:"reviews,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// CoverImageURL returns the marked cover image, or the first image when none
// is marked.
func (p *Property) CoverImageURL() string {
	for _, img := range p.Images {
		if img.IsCover {
			return img.ImageURL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].ImageURL
	}
	return ""
}

type PropertyImage struct {
	gorm.Model
	PropertyID uint   `json:"propertyID" gorm:"not null;index"`
	ImageURL   string `json:"imageURL" gorm:"size:500;not null"`
	IsCover    bool   `json:"isCover" gorm:"default:false"`
	Order      int    `json:"order" gorm:"default:0"`
}

type SavedProperty struct {
	gorm.Model
	TenantID   uint     `json:"tenantID" gorm:"not null;uniqueIndex:idx_saved_tenant_property"`
	PropertyID uint     `json:"propertyID" gorm:"not null;uniqueIndex:idx_saved_tenant_property"`
	Property   Property `json:"property" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}
