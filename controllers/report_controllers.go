package controllers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adisyo/adisyo-pos/billing"
	"github.com/adisyo/adisyo-pos/models"
	"github.com/adisyo/adisyo-pos/utils"
)

type ReportController struct {
	DB *gorm.DB
}

func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

type itemSales struct {
	Name    string  `json:"name"`
	Qty     int     `json:"qty"`
	Revenue float64 `json:"revenue"`
}

// GetDailyReport -> revenue aggregates for one day's paid orders.
// Defaults to today; ?date=YYYY-MM-DD selects another day.
func (rc *ReportController) GetDailyReport(c *gin.Context) {
	reportDate := time.Now()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
			return
		}
		reportDate = parsed
	}

	dayStart := time.Date(reportDate.Year(), reportDate.Month(), reportDate.Day(), 0, 0, 0, 0, reportDate.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var orders []models.Order
	if err := rc.DB.Preload("Items").Preload("Table").
		Where("status = ? AND closed_at >= ? AND closed_at < ?", models.OrderPaid, dayStart, dayEnd).
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var totalRevenue, cashTotal, cardTotal, totalDiscount, totalTax float64
	sales := make(map[string]*itemSales)

	for i := range orders {
		order := &orders[i]
		order.TableName = order.Table.Name

		totalRevenue += order.Total
		totalDiscount += order.DiscountAmount
		totalTax += order.TaxAmount
		switch order.PaymentMethod {
		case billing.PayCash:
			cashTotal += order.Total
		case billing.PayCard:
			cardTotal += order.Total
		}

		for _, item := range order.Items {
			entry, ok := sales[item.Name]
			if !ok {
				entry = &itemSales{Name: item.Name}
				sales[item.Name] = entry
			}
			entry.Qty += item.Quantity
			entry.Revenue += item.Price * float64(item.Quantity)
		}
	}

	topItems := make([]itemSales, 0, len(sales))
	for _, entry := range sales {
		topItems = append(topItems, *entry)
	}
	sort.Slice(topItems, func(i, j int) bool { return topItems[i].Qty > topItems[j].Qty })
	if len(topItems) > 10 {
		topItems = topItems[:10]
	}

	averageOrder := 0.0
	if len(orders) > 0 {
		averageOrder = totalRevenue / float64(len(orders))
	}

	utils.RespondJSON(c, http.StatusOK, "Daily report", gin.H{
		"date":           dayStart.Format("2006-01-02"),
		"total_revenue":  totalRevenue,
		"total_orders":   len(orders),
		"average_order":  averageOrder,
		"cash_total":     cashTotal,
		"card_total":     cardTotal,
		"total_discount": totalDiscount,
		"total_tax":      totalTax,
		"top_items":      topItems,
		"orders":         orders,
	})
}

// GetOrderHistory -> the last hundred paid orders, newest first.
func (rc *ReportController) GetOrderHistory(c *gin.Context) {
	var orders []models.Order
	if err := rc.DB.Preload("Items").Preload("Table").
		Where("status = ?", models.OrderPaid).
		Order("closed_at desc").Limit(100).
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	for i := range orders {
		orders[i].TableName = orders[i].Table.Name
	}

	utils.RespondJSON(c, http.StatusOK, "Order history", orders)
}
