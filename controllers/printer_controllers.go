package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adisyo/adisyo-pos/models"
	"github.com/adisyo/adisyo-pos/services"
	"github.com/adisyo/adisyo-pos/utils"
)

type PrinterController struct {
	DB       *gorm.DB
	Printing *services.PrintingService
}

func NewPrinterController(db *gorm.DB, printing *services.PrintingService) *PrinterController {
	return &PrinterController{DB: db, Printing: printing}
}

// GetAllPrinters
func (pc *PrinterController) GetAllPrinters(c *gin.Context) {
	var printers []models.Printer
	if err := pc.DB.Order("id asc").Find(&printers).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of printers", printers)
}

// CreatePrinter
func (pc *PrinterController) CreatePrinter(c *gin.Context) {
	var req struct {
		Name             string `json:"name" binding:"required"`
		Type             string `json:"type"`
		ConnectionString string `json:"connection_string" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	printerType := req.Type
	if printerType == "" {
		printerType = models.PrinterNetwork
	}
	switch printerType {
	case models.PrinterNetwork, models.PrinterUSB, models.PrinterConsole:
	default:
		utils.RespondError(c, http.StatusBadRequest, errors.New("type must be network, usb or console"))
		return
	}

	printer := models.Printer{
		Name:             req.Name,
		Type:             printerType,
		ConnectionString: req.ConnectionString,
		Status:           "active",
	}

	if err := pc.DB.Create(&printer).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Printer created", printer)
}

// DeletePrinter
func (pc *PrinterController) DeletePrinter(c *gin.Context) {
	printerID := c.Param("printer_id")

	var printer models.Printer
	if err := pc.DB.First(&printer, printerID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := pc.DB.Delete(&printer).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Printer deleted", gin.H{"id": printer.ID})
}

// TestPrint -> sends a test ticket to one printer. Dispatch failures
// still answer 200 with the rendered ticket so the device screen can
// show what would have printed.
func (pc *PrinterController) TestPrint(c *gin.Context) {
	var req struct {
		PrinterID uint `json:"printer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var printer models.Printer
	if err := pc.DB.First(&printer, req.PrinterID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	ticket, err := pc.Printing.TestPrint(printer)
	if err != nil {
		utils.RespondJSON(c, http.StatusOK, "Test ticket logged (device unreachable)", ticket)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Test ticket sent", ticket)
}
