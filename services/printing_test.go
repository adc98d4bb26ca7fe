package services_test

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adisyo/adisyo-pos/database"
	"github.com/adisyo/adisyo-pos/models"
	"github.com/adisyo/adisyo-pos/services"
	"github.com/adisyo/adisyo-pos/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

var dbCounter int64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:services%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	return db
}

// recordingDriver captures every dispatched ticket instead of talking
// to a device.
type recordingDriver struct {
	printed []struct {
		printer string
		content string
	}
	fail bool
}

func (d *recordingDriver) Print(printer models.Printer, content string) error {
	if d.fail {
		return errors.New("device offline")
	}
	d.printed = append(d.printed, struct {
		printer string
		content string
	}{printer.Name, content})
	return nil
}

// setupKitchen wires two printers, three stations (one without a
// printer) and routes three seeded menu items to them. Returns an open
// order holding one unprinted line per routed item.
func setupKitchen(t *testing.T, db *gorm.DB) *models.Order {
	t.Helper()

	kitchenPrinter := models.Printer{Name: "Mutfak Yazici", Type: models.PrinterNetwork, ConnectionString: "10.0.0.21"}
	barPrinter := models.Printer{Name: "Bar Yazici", Type: models.PrinterNetwork, ConnectionString: "10.0.0.22:9100"}
	assert.NoError(t, db.Create(&kitchenPrinter).Error)
	assert.NoError(t, db.Create(&barPrinter).Error)

	kitchen := models.Station{Name: "Mutfak", PrinterID: &kitchenPrinter.ID}
	bar := models.Station{Name: "Bar", PrinterID: &barPrinter.ID}
	cold := models.Station{Name: "Soguk"}
	assert.NoError(t, db.Create(&kitchen).Error)
	assert.NoError(t, db.Create(&bar).Error)
	assert.NoError(t, db.Create(&cold).Error)

	route := func(itemName string, stationID uint) models.MenuItem {
		var menuItem models.MenuItem
		assert.NoError(t, db.First(&menuItem, "name = ?", itemName).Error)
		menuItem.StationID = &stationID
		assert.NoError(t, db.Save(&menuItem).Error)
		return menuItem
	}
	adana := route("Adana Kebap", kitchen.ID)
	ayran := route("Ayran", bar.ID)
	ezme := route("Ezme", cold.ID)

	order := models.Order{TableID: 1, Status: models.OrderOpen, OpenedAt: time.Now(), TaxRate: 10}
	assert.NoError(t, db.Create(&order).Error)

	for _, line := range []models.OrderItem{
		{OrderID: order.ID, MenuItemID: adana.ID, Name: adana.Name, Price: adana.Price, Quantity: 2, Note: "acisiz"},
		{OrderID: order.ID, MenuItemID: ayran.ID, Name: ayran.Name, Price: ayran.Price, Quantity: 1},
		{OrderID: order.ID, MenuItemID: ezme.ID, Name: ezme.Name, Price: ezme.Price, Quantity: 1},
	} {
		assert.NoError(t, db.Create(&line).Error)
	}

	assert.NoError(t, db.Preload("Items").First(&order, order.ID).Error)
	order.TableName = "Masa 1"
	return &order
}

func TestDispatchOrderGroupsByStation(t *testing.T) {
	db := setupTestDB(t)
	driver := &recordingDriver{}
	ps := services.NewPrintingService(db, driver)

	order := setupKitchen(t, db)

	tickets, err := ps.DispatchOrder(order)
	assert.NoError(t, err)
	assert.Len(t, tickets, 2)
	assert.Len(t, driver.printed, 2)

	byStation := make(map[string]services.Ticket)
	for _, ticket := range tickets {
		assert.NotEmpty(t, ticket.ReferenceID)
		byStation[ticket.StationName] = ticket
	}

	kitchenTicket, ok := byStation["Mutfak"]
	assert.True(t, ok)
	assert.Equal(t, "Mutfak Yazici", kitchenTicket.PrinterName)
	assert.Equal(t, 1, kitchenTicket.ItemCount)
	assert.Contains(t, kitchenTicket.Content, "MUTFAK TICKET")
	assert.Contains(t, kitchenTicket.Content, "Table: Masa 1")
	assert.Contains(t, kitchenTicket.Content, "2 x Adana Kebap (acisiz)")

	barTicket, ok := byStation["Bar"]
	assert.True(t, ok)
	assert.Contains(t, barTicket.Content, "1 x Ayran")
	assert.NotContains(t, barTicket.Content, "Adana")

	// Routed items are now printed; the stationless cold plate stays
	// pending until someone gives the station a printer.
	var items []models.OrderItem
	assert.NoError(t, db.Order("id asc").Find(&items, "order_id = ?", order.ID).Error)
	assert.True(t, items[0].IsPrinted)
	assert.True(t, items[1].IsPrinted)
	assert.False(t, items[2].IsPrinted)
}

func TestDispatchOrderSecondPassIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	ps := services.NewPrintingService(db, &recordingDriver{})

	order := setupKitchen(t, db)

	_, err := ps.DispatchOrder(order)
	assert.NoError(t, err)

	assert.NoError(t, db.Preload("Items").First(order, order.ID).Error)
	order.TableName = "Masa 1"

	tickets, err := ps.DispatchOrder(order)
	assert.NoError(t, err)
	// Only the printerless cold station has pending items, and that one
	// cannot emit a ticket.
	assert.Empty(t, tickets)
}

func TestDispatchDriverFailureLeavesItemsUnprinted(t *testing.T) {
	db := setupTestDB(t)
	driver := &recordingDriver{fail: true}
	ps := services.NewPrintingService(db, driver)

	order := setupKitchen(t, db)

	tickets, err := ps.DispatchOrder(order)
	assert.NoError(t, err)
	assert.Empty(t, tickets)

	var items []models.OrderItem
	assert.NoError(t, db.Find(&items, "order_id = ?", order.ID).Error)
	for _, item := range items {
		assert.False(t, item.IsPrinted)
	}
}

func TestEnabledFollowsSetting(t *testing.T) {
	db := setupTestDB(t)
	ps := services.NewPrintingService(db, nil)

	assert.True(t, ps.Enabled())

	assert.NoError(t, db.Model(&models.Setting{}).
		Where("key = ?", "print_enabled").Update("value", "false").Error)
	assert.False(t, ps.Enabled())
}

func TestFormatTicket(t *testing.T) {
	items := []models.OrderItem{
		{Name: "Lahmacun", Quantity: 3},
		{Name: "Cay", Quantity: 2, Note: "demli"},
	}
	now := time.Date(2024, 6, 15, 19, 42, 0, 0, time.UTC)

	content := services.FormatTicket("Mutfak", "Masa 4", items, now)

	assert.Contains(t, content, "MUTFAK TICKET")
	assert.Contains(t, content, "Table: Masa 4")
	assert.Contains(t, content, "Time: 19:42")
	assert.Contains(t, content, "3 x Lahmacun\n")
	assert.Contains(t, content, "2 x Cay (demli)")
	assert.True(t, strings.HasPrefix(content, strings.Repeat("-", 32)))
}

func TestTestPrint(t *testing.T) {
	db := setupTestDB(t)
	driver := &recordingDriver{}
	ps := services.NewPrintingService(db, driver)

	printer := models.Printer{Name: "Kasa Yazici", Type: models.PrinterConsole, ConnectionString: "console"}

	ticket, err := ps.TestPrint(printer)
	assert.NoError(t, err)
	assert.Equal(t, "Kasa Yazici", ticket.PrinterName)
	assert.Contains(t, ticket.Content, "TEST TICKET")
	assert.Len(t, driver.printed, 1)
}
