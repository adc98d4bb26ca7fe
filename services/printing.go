package services

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adisyo/adisyo-pos/models"
	"github.com/adisyo/adisyo-pos/utils"
)

// Driver delivers a rendered ticket to a physical printer. The wire
// protocol behind the device is out of scope; a driver just gets the
// ticket bytes somewhere.
type Driver interface {
	Print(printer models.Printer, content string) error
}

// ConsoleDriver logs tickets instead of printing them. Default in
// development and the fallback when a device is unreachable.
type ConsoleDriver struct{}

func (ConsoleDriver) Print(printer models.Printer, content string) error {
	utils.InfoLogger.Printf("DEMO PRINT (%s):\n%s", printer.Name, content)
	return nil
}

// NetworkDriver writes the raw ticket to printer.ConnectionString
// (IP or IP:port, default port 9100).
type NetworkDriver struct {
	Timeout time.Duration
}

func (d NetworkDriver) Print(printer models.Printer, content string) error {
	addr := printer.ConnectionString
	if !strings.Contains(addr, ":") {
		addr += ":9100"
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("printer %s unreachable: %w", printer.Name, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(content)); err != nil {
		return fmt.Errorf("printer %s write failed: %w", printer.Name, err)
	}
	return nil
}

// PrintingService builds station tickets for an order's unprinted
// items and dispatches them.
type PrintingService struct {
	DB     *gorm.DB
	Driver Driver
}

func NewPrintingService(db *gorm.DB, driver Driver) *PrintingService {
	if driver == nil {
		driver = ConsoleDriver{}
	}
	return &PrintingService{DB: db, Driver: driver}
}

// Ticket is one rendered kitchen ticket bound for one station.
type Ticket struct {
	ReferenceID string `json:"reference_id"`
	StationID   uint   `json:"station_id"`
	StationName string `json:"station_name"`
	PrinterName string `json:"printer_name,omitempty"`
	Content     string `json:"content"`
	ItemCount   int    `json:"item_count"`
}

// Enabled reports whether the print_enabled setting allows dispatch.
func (ps *PrintingService) Enabled() bool {
	var setting models.Setting
	if err := ps.DB.First(&setting, "key = ?", "print_enabled").Error; err != nil {
		return true
	}
	return setting.Value == "true"
}

// GroupUnprintedByStation collects the order's unprinted items keyed
// by the station their menu item routes to. Items without a station
// are skipped: nothing in the kitchen would pick them up.
func (ps *PrintingService) GroupUnprintedByStation(order *models.Order) map[uint][]models.OrderItem {
	grouped := make(map[uint][]models.OrderItem)
	for _, item := range order.Items {
		if item.IsPrinted {
			continue
		}
		var menuItem models.MenuItem
		if err := ps.DB.First(&menuItem, item.MenuItemID).Error; err != nil {
			continue
		}
		if menuItem.StationID == nil {
			continue
		}
		grouped[*menuItem.StationID] = append(grouped[*menuItem.StationID], item)
	}
	return grouped
}

// FormatTicket renders one station's ticket.
func FormatTicket(stationName, tableName string, items []models.OrderItem, now time.Time) string {
	var b strings.Builder
	rule := strings.Repeat("-", 32)

	fmt.Fprintf(&b, "%s\n%s TICKET\nTable: %s\nTime: %s\n%s\n",
		rule, strings.ToUpper(stationName), tableName, now.Format("15:04"), rule)

	for _, item := range items {
		noteStr := ""
		if item.Note != "" {
			noteStr = fmt.Sprintf(" (%s)", item.Note)
		}
		fmt.Fprintf(&b, "%d x %s%s\n", item.Quantity, item.Name, noteStr)
	}

	fmt.Fprintf(&b, "\n%s\n", rule)
	return b.String()
}

// DispatchOrder prints every pending station ticket for the order and
// marks the covered items printed. Items whose station has no printer
// stay unprinted so a later device fix can pick them up.
func (ps *PrintingService) DispatchOrder(order *models.Order) ([]Ticket, error) {
	grouped := ps.GroupUnprintedByStation(order)
	if len(grouped) == 0 {
		return nil, nil
	}

	var tickets []Ticket
	now := time.Now()

	for stationID, items := range grouped {
		var station models.Station
		if err := ps.DB.First(&station, stationID).Error; err != nil {
			continue
		}
		if station.PrinterID == nil {
			continue
		}
		var printer models.Printer
		if err := ps.DB.First(&printer, *station.PrinterID).Error; err != nil {
			continue
		}

		content := FormatTicket(station.Name, order.TableName, items, now)

		if err := ps.Driver.Print(printer, content); err != nil {
			// Keep the demo fallback from the till software: log the
			// ticket so service continues, but leave items unprinted.
			utils.ErrorLogger.Printf("dispatch to %s failed: %v", printer.Name, err)
			ConsoleDriver{}.Print(printer, content)
			continue
		}

		ids := make([]uint, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ID)
		}
		if err := ps.DB.Model(&models.OrderItem{}).Where("id IN ?", ids).
			Update("is_printed", true).Error; err != nil {
			return tickets, err
		}

		tickets = append(tickets, Ticket{
			ReferenceID: uuid.NewString(),
			StationID:   station.ID,
			StationName: station.Name,
			PrinterName: printer.Name,
			Content:     content,
			ItemCount:   len(items),
		})
	}

	return tickets, nil
}

// TestPrint sends a fixed test ticket to one printer.
func (ps *PrintingService) TestPrint(printer models.Printer) (Ticket, error) {
	rule := strings.Repeat("-", 32)
	content := fmt.Sprintf("%s\nTEST TICKET\nPrinter: %s\nDate: %s\n%s\nThis is a test ticket.\n%s\n",
		rule, printer.Name, time.Now().Format("02.01.2006 15:04"), rule, rule)

	ticket := Ticket{
		ReferenceID: uuid.NewString(),
		PrinterName: printer.Name,
		Content:     content,
	}

	if err := ps.Driver.Print(printer, content); err != nil {
		ConsoleDriver{}.Print(printer, content)
		return ticket, err
	}
	return ticket, nil
}
