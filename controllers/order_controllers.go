package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adisyo/adisyo-pos/billing"
	"github.com/adisyo/adisyo-pos/models"
	"github.com/adisyo/adisyo-pos/utils"
)

type OrderController struct {
	DB *gorm.DB
}

func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{DB: db}
}

var (
	ErrVersionConflict = errors.New("order was modified by someone else, refresh and retry")

	errOrderItemNotFound = errors.New("order item not found")
)

// loadOrder fetches an order with its items in insertion order and
// fills the display-only table name.
func loadOrder(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("order_items.id asc")
	}).Preload("Table").First(&order, orderID).Error
	if err != nil {
		return nil, err
	}
	order.TableName = order.Table.Name
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}
	return &order, nil
}

func loadOpenOrderForTable(db *gorm.DB, tableID uint) (*models.Order, error) {
	var order models.Order
	if err := db.Where("table_id = ? AND status = ?", tableID, models.OrderOpen).First(&order).Error; err != nil {
		return nil, err
	}
	return loadOrder(db, order.ID)
}

// currentTaxRate reads the settings row; orders snapshot it at open
// so a later settings change never rewrites an open tab.
func currentTaxRate(db *gorm.DB) float64 {
	var setting models.Setting
	if err := db.First(&setting, "key = ?", "tax_rate").Error; err != nil {
		return 10
	}
	rate, err := strconv.ParseFloat(setting.Value, 64)
	if err != nil {
		return 10
	}
	return rate
}

// GetOrderByID -> full order snapshot (the ledger client's re-sync
// read).
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	order, err := loadOrder(oc.DB, uint(id))
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// recalcAndBump recomputes totals from the current items and advances
// the version token. Runs inside the caller's transaction.
func recalcAndBump(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
		return nil, err
	}
	order.RecalcTotals()
	order.Version++
	if err := tx.Save(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// checkVersion enforces the optimistic-concurrency token when the
// caller supplies one. Absent token keeps last-write-wins. The order
// must come from the same transaction as the write it guards, so two
// racing mutations cannot both pass against the same version.
func checkVersion(order *models.Order, expected *uint) error {
	if expected != nil && *expected != order.Version {
		return ErrVersionConflict
	}
	return nil
}

// respondMutationError maps the transaction outcome of an item
// mutation onto the wire.
func respondMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrVersionConflict):
		utils.RespondError(c, http.StatusConflict, ErrVersionConflict)
	case errors.Is(err, errOrderItemNotFound) || errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

// AddOrderItem -> adds a line to an open order. A line with the same
// menu item and note merges into the existing one instead of
// duplicating it. Responds with the full refreshed order.
func (oc *OrderController) AddOrderItem(c *gin.Context) {
	orderID64, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}
	orderID := uint(orderID64)

	var req struct {
		MenuItemID uint   `json:"menu_item_id" binding:"required"`
		Quantity   int    `json:"quantity"`
		Note       string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	var order models.Order
	if err := oc.DB.First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if order.Status != models.OrderOpen {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("order is %s, not open", order.Status))
		return
	}

	var menuItem models.MenuItem
	if err := oc.DB.First(&menuItem, req.MenuItemID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}

	err = oc.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.OrderItem
		findErr := tx.Where("order_id = ? AND menu_item_id = ? AND note = ?", orderID, req.MenuItemID, req.Note).
			First(&existing).Error
		if findErr == nil {
			existing.Quantity += req.Quantity
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		} else {
			item := models.OrderItem{
				OrderID:    orderID,
				MenuItemID: menuItem.ID,
				Name:       menuItem.Name,
				Price:      menuItem.Price,
				Quantity:   req.Quantity,
				Note:       req.Note,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		_, err := recalcAndBump(tx, orderID)
		return err
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	refreshed, err := loadOrder(oc.DB, orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item added", refreshed)
}

// UpdateOrderItem -> updates a line's quantity and/or note. A quantity
// of zero or below deletes the line. Carries an optional
// expected_version token; a stale token gets 409 and no change.
func (oc *OrderController) UpdateOrderItem(c *gin.Context) {
	orderID64, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}
	orderID := uint(orderID64)
	itemID := c.Param("item_id")

	var req struct {
		Quantity        *int    `json:"quantity"`
		Note            *string `json:"note"`
		ExpectedVersion *uint   `json:"expected_version"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	err = oc.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		if err := checkVersion(&order, req.ExpectedVersion); err != nil {
			return err
		}

		var item models.OrderItem
		if err := tx.Where("order_id = ?", orderID).First(&item, itemID).Error; err != nil {
			return errOrderItemNotFound
		}

		if req.Quantity != nil {
			if *req.Quantity <= 0 {
				if err := tx.Delete(&item).Error; err != nil {
					return err
				}
			} else {
				item.Quantity = *req.Quantity
				if err := tx.Save(&item).Error; err != nil {
					return err
				}
			}
		}

		if req.Note != nil && (req.Quantity == nil || *req.Quantity > 0) {
			item.Note = *req.Note
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		}

		_, err := recalcAndBump(tx, orderID)
		return err
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	refreshed, err := loadOrder(oc.DB, orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item updated", refreshed)
}

// DeleteOrderItem -> removes a line. The expected_version token rides
// the query string since DELETE bodies are unreliable.
func (oc *OrderController) DeleteOrderItem(c *gin.Context) {
	orderID64, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}
	orderID := uint(orderID64)
	itemID := c.Param("item_id")

	var expectedVersion *uint
	if raw := c.Query("expected_version"); raw != "" {
		v64, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid expected_version"))
			return
		}
		v := uint(v64)
		expectedVersion = &v
	}

	err = oc.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		if err := checkVersion(&order, expectedVersion); err != nil {
			return err
		}

		var item models.OrderItem
		if err := tx.Where("order_id = ?", orderID).First(&item, itemID).Error; err != nil {
			return errOrderItemNotFound
		}

		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		_, err := recalcAndBump(tx, orderID)
		return err
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	refreshed, err := loadOrder(oc.DB, orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed", refreshed)
}

// ProcessPayment -> applies the discount draft, closes the order and
// frees the table. The discount math is the same shared function the
// client preview uses, so commit and preview cannot disagree.
func (oc *OrderController) ProcessPayment(c *gin.Context) {
	orderID64, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}
	orderID := uint(orderID64)

	var req struct {
		DiscountType  string  `json:"discount_type"`
		DiscountValue float64 `json:"discount_value"`
		PaymentMethod string  `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	draft := billing.Draft{
		DiscountType:  billing.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		PaymentMethod: billing.PaymentMethod(req.PaymentMethod),
	}
	if req.DiscountType == "" {
		draft.DiscountType = billing.DiscountNone
	}
	if req.PaymentMethod == "" {
		draft.PaymentMethod = billing.PayCash
	}
	if err := draft.Validate(); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var order models.Order
	if err := oc.DB.First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if order.Status != models.OrderOpen {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("order is %s, not open", order.Status))
		return
	}

	preview := billing.PreviewPayment(order.Subtotal, order.TaxAmount, draft)

	now := time.Now()
	order.DiscountType = draft.DiscountType
	order.DiscountAmount = preview.Discount
	order.Total = preview.Total
	order.PaymentMethod = draft.PaymentMethod
	order.Status = models.OrderPaid
	order.ClosedAt = &now

	err = oc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		var table models.Table
		if err := tx.First(&table, order.TableID).Error; err == nil {
			table.Status = models.TableAvailable
			table.OpenedAt = nil
			if err := tx.Save(&table).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Order %d paid: total=%s method=%s discount=%s",
		order.ID, utils.FormatCurrency(order.Total), order.PaymentMethod, order.DiscountType)

	refreshed, err := loadOrder(oc.DB, orderID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment successful", refreshed)
}
