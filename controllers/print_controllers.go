package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adisyo/adisyo-pos/services"
	"github.com/adisyo/adisyo-pos/utils"
)

type PrintController struct {
	DB       *gorm.DB
	Printing *services.PrintingService
}

func NewPrintController(db *gorm.DB, printing *services.PrintingService) *PrintController {
	return &PrintController{DB: db, Printing: printing}
}

// PrintOrderTickets -> dispatches station tickets for the order's
// unprinted items.
func (pc *PrintController) PrintOrderTickets(c *gin.Context) {
	orderID64, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	if !pc.Printing.Enabled() {
		utils.RespondError(c, http.StatusBadRequest, errors.New("printing is disabled in settings"))
		return
	}

	order, err := loadOrder(pc.DB, uint(orderID64))
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	tickets, err := pc.Printing.DispatchOrder(order)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if len(tickets) == 0 {
		utils.RespondJSON(c, http.StatusOK, "No new items to print", tickets)
		return
	}

	utils.RespondJSON(c, http.StatusOK, fmt.Sprintf("%d station ticket(s) printed", len(tickets)), tickets)
}
