package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adisyo/adisyo-pos/controllers"
	"github.com/adisyo/adisyo-pos/middlewares"
	"github.com/adisyo/adisyo-pos/models"
	"github.com/adisyo/adisyo-pos/services"
	"github.com/adisyo/adisyo-pos/utils"
)

func SetupRouter(db *gorm.DB, printing *services.PrintingService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	// Global limiter must be installed before any route is registered;
	// gin snapshots each route's handler chain at registration time.
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	if printing == nil {
		printing = services.NewPrintingService(db, nil)
	}

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(db)
	orderCtrl := controllers.NewOrderController(db)
	menuCtrl := controllers.NewMenuController(db)
	categoryCtrl := controllers.NewCategoryController(db)
	stationCtrl := controllers.NewStationController(db)
	printerCtrl := controllers.NewPrinterController(db, printing)
	printCtrl := controllers.NewPrintController(db, printing)
	settingsCtrl := controllers.NewSettingsController(db)
	reportCtrl := controllers.NewReportController(db)

	api := r.Group("/api")

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	api.GET("/health", func(c *gin.Context) {
		utils.RespondJSON(c, 200, "running", gin.H{
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "2.0.0",
		})
	})

	login := api.Group("/auth")
	login.Use(middlewares.NewLoginRateLimiter())
	{
		login.POST("/login", userCtrl.Login)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := api.Group("/")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/auth/me", userCtrl.Me)
	auth.POST("/auth/logout", userCtrl.Logout)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
	auth.POST("/tables/:table_id/open", tableCtrl.OpenTable)
	auth.POST("/tables/:table_id/close", tableCtrl.CloseTable)

	// ORDERS
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.POST("/orders/:order_id/items", orderCtrl.AddOrderItem)
	auth.PUT("/orders/:order_id/items/:item_id", orderCtrl.UpdateOrderItem)
	auth.DELETE("/orders/:order_id/items/:item_id", orderCtrl.DeleteOrderItem)
	auth.POST("/orders/:order_id/payment", orderCtrl.ProcessPayment)
	auth.POST("/orders/:order_id/print", printCtrl.PrintOrderTickets)

	// CATALOG (read)
	auth.GET("/menu", menuCtrl.GetMenu)
	auth.GET("/menu/items", menuCtrl.GetAllMenuItems)
	auth.GET("/categories", categoryCtrl.GetAllCategories)
	auth.GET("/stations", stationCtrl.GetAllStations)
	auth.GET("/settings", settingsCtrl.GetSettings)

	// REPORTS (admin, cashier)
	reports := auth.Group("/reports")
	reports.Use(middlewares.RequireRoles(models.RoleAdmin, models.RoleCashier))
	{
		reports.GET("/daily", reportCtrl.GetDailyReport)
		reports.GET("/orders", reportCtrl.GetOrderHistory)
	}

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := auth.Group("/")
	admin.Use(middlewares.RequireRoles(models.RoleAdmin))

	admin.POST("/tables", tableCtrl.CreateTable)

	admin.POST("/menu/items", menuCtrl.CreateMenuItem)
	admin.PUT("/menu/items/:item_id", menuCtrl.UpdateMenuItem)
	admin.DELETE("/menu/items/:item_id", menuCtrl.DeleteMenuItem)
	admin.POST("/categories", categoryCtrl.CreateCategory)

	admin.POST("/stations", stationCtrl.CreateStation)
	admin.PUT("/stations/:station_id", stationCtrl.UpdateStation)
	admin.DELETE("/stations/:station_id", stationCtrl.DeleteStation)

	admin.GET("/printers", printerCtrl.GetAllPrinters)
	admin.POST("/printers", printerCtrl.CreatePrinter)
	admin.DELETE("/printers/:printer_id", printerCtrl.DeletePrinter)
	admin.POST("/print/test", printerCtrl.TestPrint)

	admin.GET("/users", userCtrl.GetAllUsers)
	admin.POST("/users", userCtrl.CreateUser)
	admin.DELETE("/users/:user_id", userCtrl.DeleteUser)

	admin.PUT("/settings", settingsCtrl.UpdateSettings)

	return r
}
