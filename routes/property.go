package routes

import (
	"encoding/json"
	"errors"

	"homehive-server/models"
	"homehive-server/storage"
	"homehive-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreatePropertyInput struct {
	Title        string               `json:"title" validate:"required,max=255"`
	Description  string               `json:"description" validate:"required"`
	Price        float64              `json:"price" validate:"required,gt=0"`
	Location     string               `json:"location" validate:"required,max=255"`
	ZipCode      string               `json:"zipCode" validate:"max=20"`
	Latitude     *float64             `json:"latitude"`
	Longitude    *float64             `json:"longitude"`
	PropertyType string               `json:"propertyType" validate:"required,oneof=APARTMENT HOUSE CONDO TOWNHOUSE"`
	NumBedrooms  int                  `json:"numBedrooms" validate:"min=0"`
	NumBathrooms int                  `json:"numBathrooms" validate:"min=0"`
	Amenities    []string             `json:"amenities"`
	IsPremium    bool                 `json:"isPremium"`
	Images       []PropertyImageInput `json:"images" validate:"dive"`
}

type PropertyImageInput struct {
	ImageURL string `json:"imageURL" validate:"required,url,max=500"`
	IsCover  bool   `json:"isCover"`
	Order    int    `json:"order"`
}

// CreateProperty creates a listing owned by the calling landlord.
func CreateProperty(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreatePropertyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	amenities, marshalErr := json.Marshal(input.Amenities)
	if marshalErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	property := models.Property{
		LandlordID:   claims.ID,
		Title:        input.Title,
		Description:  input.Description,
		Price:        input.Price,
		Location:     input.Location,
		ZipCode:      input.ZipCode,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		PropertyType: input.PropertyType,
		NumBedrooms:  input.NumBedrooms,
		NumBathrooms: input.NumBathrooms,
		Amenities:    datatypes.JSON(amenities),
		IsPremium:    input.IsPremium,
		Images:       buildImages(input.Images),
	}

	if err := storage.DB.Create(&property).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(property)
}

// GetProperty returns one listing and bumps its view counter.
func GetProperty(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		return
	}

	var property models.Property
	if dbErr := storage.DB.Preload("Images").Preload("Landlord").First(&property, id).Error; dbErr != nil {
		utils.CreateNotFound(ctx)
		return
	}

	storage.DB.Model(&property).UpdateColumn("view_count", gorm.Expr("view_count + 1"))

	ctx.JSON(property)
}

// ListProperties returns listings matching the query filters, premium
// listings first, then newest.
func ListProperties(ctx iris.Context) {
	q := storage.DB.Model(&models.Property{}).Preload("Images")

	if location := ctx.URLParam("location"); location != "" {
		q = q.Where("lower(location) LIKE lower(?)", "%"+location+"%")
	}
	if minPrice, err := ctx.URLParamFloat64("minPrice"); err == nil && minPrice > 0 {
		q = q.Where("price >= ?", minPrice)
	}
	if maxPrice, err := ctx.URLParamFloat64("maxPrice"); err == nil && maxPrice > 0 {
		q = q.Where("price <= ?", maxPrice)
	}
	if bedrooms, err := ctx.URLParamInt("bedrooms"); err == nil && bedrooms > 0 {
		q = q.Where("num_bedrooms >= ?", bedrooms)
	}
	if propertyType := ctx.URLParam("propertyType"); propertyType != "" {
		q = q.Where("property_type = ?", propertyType)
	}

	limit := ctx.URLParamIntDefault("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}

	var total int64
	q.Count(&total)

	var properties []models.Property
	if err := q.Order("is_premium DESC, created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&properties).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, properties, page, limit, total)
}

// GetMyProperties returns the calling landlord's listings.
func GetMyProperties(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var properties []models.Property
	if err := storage.DB.Preload("Images").
		Where("landlord_id = ?", claims.ID).
		Order("created_at DESC").
		Find(&properties).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(properties)
}

type UpdatePropertyInput struct {
	Title        *string  `json:"title" validate:"omitempty,max=255"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price" validate:"omitempty,gt=0"`
	Location     *string  `json:"location" validate:"omitempty,max=255"`
	PropertyType *string  `json:"propertyType" validate:"omitempty,oneof=APARTMENT HOUSE CONDO TOWNHOUSE"`
	NumBedrooms  *int     `json:"numBedrooms" validate:"omitempty,min=0"`
	NumBathrooms *int     `json:"numBathrooms" validate:"omitempty,min=0"`
	Amenities    []string `json:"amenities"`
	IsPremium    *bool    `json:"isPremium"`
}

// UpdateProperty patches a listing; only its landlord may call it.
func UpdateProperty(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	property, ok := ownedProperty(ctx, claims.ID)
	if !ok {
		return
	}

	var input UpdatePropertyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.Location != nil {
		updates["location"] = *input.Location
	}
	if input.PropertyType != nil {
		updates["property_type"] = *input.PropertyType
	}
	if input.NumBedrooms != nil {
		updates["num_bedrooms"] = *input.NumBedrooms
	}
	if input.NumBathrooms != nil {
		updates["num_bathrooms"] = *input.NumBathrooms
	}
	if input.IsPremium != nil {
		updates["is_premium"] = *input.IsPremium
	}
	if input.Amenities != nil {
		raw, marshalErr := json.Marshal(input.Amenities)
		if marshalErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		updates["amenities"] = datatypes.JSON(raw)
	}

	if len(updates) > 0 {
		if err := storage.DB.Model(property).Updates(updates).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ctx.JSON(property)
}

// DeleteProperty removes a listing; only its landlord may call it. Rooms,
// messages, images and reviews go with it.
func DeleteProperty(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	property, ok := ownedProperty(ctx, claims.ID)
	if !ok {
		return
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		var roomIDs []uint
		if err := tx.Model(&models.ChatRoom{}).
			Where("property_id = ?", property.ID).
			Pluck("id", &roomIDs).Error; err != nil {
			return err
		}
		if len(roomIDs) > 0 {
			if err := tx.Where("room_id IN ?", roomIDs).Delete(&models.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", roomIDs).Delete(&models.ChatRoom{}).Error; err != nil {
				return err
			}
		}
		return tx.Select("Images", "Reviews").Delete(property).Error
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// SaveProperty adds a listing to the calling tenant's saved list.
func SaveProperty(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		return
	}

	var property models.Property
	if dbErr := storage.DB.First(&property, id).Error; dbErr != nil {
		utils.CreateNotFound(ctx)
		return
	}

	saved := models.SavedProperty{TenantID: claims.ID, PropertyID: id}
	if err := storage.DB.Create(&saved).Error; err != nil {
		// Already saved; the unique index makes this idempotent.
		ctx.JSON(iris.Map{"success": true})
		return
	}

	storage.DB.Model(&property).UpdateColumn("save_count", gorm.Expr("save_count + 1"))

	ctx.JSON(iris.Map{"success": true})
}

// UnsaveProperty removes a listing from the calling tenant's saved list.
func UnsaveProperty(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		return
	}

	res := storage.DB.Where("tenant_id = ? AND property_id = ?", claims.ID, id).
		Delete(&models.SavedProperty{})
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected > 0 {
		storage.DB.Model(&models.Property{}).
			Where("id = ? AND save_count > 0", id).
			UpdateColumn("save_count", gorm.Expr("save_count - 1"))
	}

	ctx.JSON(iris.Map{"success": true})
}

// GetSavedProperties lists the calling tenant's saved listings.
func GetSavedProperties(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var saved []models.SavedProperty
	if err := storage.DB.Preload("Property.Images").
		Where("tenant_id = ?", claims.ID).
		Order("created_at DESC").
		Find(&saved).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	properties := make([]models.Property, 0, len(saved))
	for _, s := range saved {
		properties = append(properties, s.Property)
	}
	ctx.JSON(properties)
}

func buildImages(inputs []PropertyImageInput) []models.PropertyImage {
	images := make([]models.PropertyImage, 0, len(inputs))
	coverSeen := false
	for _, in := range inputs {
		isCover := in.IsCover && !coverSeen
		if isCover {
			coverSeen = true
		}
		images = append(images, models.PropertyImage{
			ImageURL: in.ImageURL,
			IsCover:  isCover,
			Order:    in.Order,
		})
	}
	return images
}

// ownedProperty loads the {id} listing and verifies the caller owns it.
func ownedProperty(ctx iris.Context, userID uint) (*models.Property, bool) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		return nil, false
	}

	var property models.Property
	if dbErr := storage.DB.First(&property, id).Error; dbErr != nil {
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
		} else {
			utils.CreateInternalServerError(ctx)
		}
		return nil, false
	}

	if property.LandlordID != userID {
		utils.CreateForbidden(ctx)
		return nil, false
	}
	return &property, true
}
