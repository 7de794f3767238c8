package routes

import (
	"homehive-server/models"
	"homehive-server/storage"
	"homehive-server/utils"

	"github.com/kataras/iris/v12"
)

// GetPropertyTypeHelp returns the active help pages in display order.
func GetPropertyTypeHelp(ctx iris.Context) {
	var pages []models.PropertyTypeHelp
	if err := storage.DB.
		Where("is_active = ?", true).
		Order(`"order" ASC, id ASC`).
		Find(&pages).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(pages)
}
