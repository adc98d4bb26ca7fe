package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adisyo/adisyo-pos/models"
	"github.com/adisyo/adisyo-pos/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// tableWithOrder embeds the table's open order (or null) the way the
// floor view consumes it.
type tableWithOrder struct {
	models.Table
	Order *models.Order `json:"order"`
}

func (tc *TableController) attachOpenOrder(table models.Table) tableWithOrder {
	out := tableWithOrder{Table: table}
	order, err := loadOpenOrderForTable(tc.DB, table.ID)
	if err == nil {
		out.Order = order
	}
	return out
}

// GetAllTables -> every table with its open order, if any.
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Order("id asc").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	result := make([]tableWithOrder, 0, len(tables))
	for _, table := range tables {
		result = append(result, tc.attachOpenOrder(table))
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", result)
}

// CreateTable -> admin adds a table.
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Capacity int    `json:"capacity"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("table name is required"))
		return
	}

	table := models.Table{
		Name:     req.Name,
		Capacity: 4,
		Status:   models.TableAvailable,
	}
	if req.Capacity > 0 {
		table.Capacity = req.Capacity
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New table created: %s", table.Name)
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// GetTableByID -> one table with its open order.
func (tc *TableController) GetTableByID(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table detail", tc.attachOpenOrder(table))
}

// OpenTable -> opens a fresh order for the table, or returns the
// existing open one. Idempotent by design: two waiters opening the
// same table land on the same tab.
func (tc *TableController) OpenTable(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if existing, err := loadOpenOrderForTable(tc.DB, table.ID); err == nil {
		utils.RespondJSON(c, http.StatusOK, "Existing open order", existing)
		return
	}

	taxRate := currentTaxRate(tc.DB)
	now := time.Now()

	order := models.Order{
		TableID:  table.ID,
		Status:   models.OrderOpen,
		OpenedAt: now,
		TaxRate:  taxRate,
	}
	if userIDValue, exists := c.Get("user_id"); exists {
		if userID, ok := userIDValue.(uint); ok {
			order.UserID = &userID
		}
	}

	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		table.Status = models.TableOccupied
		table.OpenedAt = &now
		return tx.Save(&table).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	order.Items = []models.OrderItem{}
	order.TableName = table.Name
	utils.RespondJSON(c, http.StatusCreated, "Order opened", order)
}

// CloseTable -> cancels the open order without payment and frees the
// table.
func (tc *TableController) CloseTable(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("table_id = ? AND status = ?", table.ID, models.OrderOpen).First(&order).Error; err == nil {
			now := time.Now()
			order.Status = models.OrderCancelled
			order.ClosedAt = &now
			if err := tx.Save(&order).Error; err != nil {
				return err
			}
		}

		table.Status = models.TableAvailable
		table.OpenedAt = nil
		return tx.Save(&table).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Table %d closed without payment", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table closed", nil)
}
