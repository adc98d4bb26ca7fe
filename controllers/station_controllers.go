package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adisyo/adisyo-pos/models"
	"github.com/adisyo/adisyo-pos/utils"
)

type StationController struct {
	DB *gorm.DB
}

func NewStationController(db *gorm.DB) *StationController {
	return &StationController{DB: db}
}

// GetAllStations
func (sc *StationController) GetAllStations(c *gin.Context) {
	var stations []models.Station
	if err := sc.DB.Preload("Printer").Order("id asc").Find(&stations).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of stations", stations)
}

// CreateStation
func (sc *StationController) CreateStation(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		PrinterID *uint  `json:"printer_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.PrinterID != nil {
		var printer models.Printer
		if err := sc.DB.First(&printer, *req.PrinterID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, errors.New("printer not found"))
			return
		}
	}

	station := models.Station{
		Name:      req.Name,
		PrinterID: req.PrinterID,
	}

	if err := sc.DB.Create(&station).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Station created", station)
}

// UpdateStation
func (sc *StationController) UpdateStation(c *gin.Context) {
	stationID := c.Param("station_id")

	var station models.Station
	if err := sc.DB.First(&station, stationID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var req struct {
		Name      *string `json:"name"`
		PrinterID *uint   `json:"printer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		station.Name = *req.Name
	}
	if req.PrinterID != nil {
		station.PrinterID = req.PrinterID
	}

	if err := sc.DB.Save(&station).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Station updated", station)
}

// DeleteStation
func (sc *StationController) DeleteStation(c *gin.Context) {
	stationID := c.Param("station_id")

	var station models.Station
	if err := sc.DB.First(&station, stationID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := sc.DB.Delete(&station).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Station deleted", gin.H{"id": station.ID})
}
