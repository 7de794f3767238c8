package routes

import (
	"errors"

	"homehive-server/models"
	"homehive-server/services"
	"homehive-server/storage"
	"homehive-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

type CreateReviewInput struct {
	PropertyID uint   `json:"propertyID" validate:"required"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment" validate:"max=2000"`
}

// CreateReview stores a tenant's review of a property. One review per tenant
// per property; the landlord is notified through the event bus.
func CreateReview(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var property models.Property
	if err := storage.DB.First(&property, input.PropertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Not Found", "Property not found.", ctx)
		} else {
			utils.CreateInternalServerError(ctx)
		}
		return
	}

	var existing models.Review
	dup := storage.DB.
		Where("tenant_id = ? AND property_id = ?", claims.ID, input.PropertyID).
		Limit(1).Find(&existing)
	if dup.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if dup.RowsAffected > 0 {
		utils.CreateError(iris.StatusConflict, "Conflict", "You have already reviewed this property.", ctx)
		return
	}

	review := models.Review{
		LandlordID: property.LandlordID,
		TenantID:   claims.ID,
		PropertyID: property.ID,
		Rating:     input.Rating,
		Comment:    input.Comment,
	}
	if err := storage.DB.Create(&review).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var tenant models.User
	tenantName := ""
	if err := storage.DB.First(&tenant, claims.ID).Error; err == nil {
		tenantName = tenant.DisplayName()
	}

	services.Events.Publish(services.ReviewPosted{
		ReviewID:      review.ID,
		PropertyID:    property.ID,
		LandlordID:    property.LandlordID,
		TenantID:      claims.ID,
		TenantName:    tenantName,
		PropertyTitle: property.Title,
		Rating:        review.Rating,
	})

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(review)
}

// ListPropertyReviews returns a property's reviews, newest first, plus the
// average rating.
func ListPropertyReviews(ctx iris.Context) {
	propertyID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		return
	}

	var reviews []models.Review
	if dbErr := storage.DB.Preload("Tenant").
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Find(&reviews).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var average float64
	storage.DB.Model(&models.Review{}).
		Where("property_id = ?", propertyID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&average)

	ctx.JSON(iris.Map{
		"reviews":       reviews,
		"averageRating": average,
		"count":         len(reviews),
	})
}

// ListLandlordReviews returns every review left across a landlord's
// properties, newest first.
func ListLandlordReviews(ctx iris.Context) {
	landlordID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		return
	}

	var reviews []models.Review
	if dbErr := storage.DB.Preload("Tenant").Preload("Property.Images").
		Where("landlord_id = ?", landlordID).
		Order("created_at DESC").
		Find(&reviews).Error; dbErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var average float64
	storage.DB.Model(&models.Review{}).
		Where("landlord_id = ?", landlordID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&average)

	ctx.JSON(iris.Map{
		"reviews":       reviews,
		"averageRating": average,
		"count":         len(reviews),
	})
}
