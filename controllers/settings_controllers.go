package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adisyo/adisyo-pos/models"
	"github.com/adisyo/adisyo-pos/utils"
)

type SettingsController struct {
	DB *gorm.DB
}

func NewSettingsController(db *gorm.DB) *SettingsController {
	return &SettingsController{DB: db}
}

// GetSettings -> all settings as a flat key/value map.
func (sc *SettingsController) GetSettings(c *gin.Context) {
	var settings []models.Setting
	if err := sc.DB.Find(&settings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	result := make(map[string]string, len(settings))
	for _, s := range settings {
		result[s.Key] = s.Value
	}
	if _, ok := result["print_enabled"]; !ok {
		result["print_enabled"] = "true"
	}

	utils.RespondJSON(c, http.StatusOK, "Settings", result)
}

// UpdateSettings -> upserts every key in the request body.
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		for key, value := range req {
			setting := models.Setting{Key: key, Value: fmt.Sprintf("%v", value)}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&setting).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Settings updated", nil)
}
