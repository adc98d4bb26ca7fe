package database

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/adisyo/adisyo-pos/models"
)

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Category{},
		&models.MenuItem{},
		&models.Printer{},
		&models.Station{},
		&models.Order{},
		&models.OrderItem{},
		&models.Setting{},
	)
}

// Seed installs the default data set on an empty database: staff
// accounts, twelve tables, the four-category menu and the settings
// rows. It is idempotent per entity group.
func Seed(db *gorm.DB) error {
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount == 0 {
		for _, u := range []struct {
			username, password, name string
			role                     models.Role
		}{
			{"admin", "admin123", "Admin", models.RoleAdmin},
			{"kasa1", "1234", "Ayse", models.RoleCashier},
			{"garson1", "1234", "Mehmet", models.RoleWaiter},
			{"garson2", "1234", "Ahmet", models.RoleWaiter},
		} {
			hashed, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			if err := db.Create(&models.User{
				Username: u.username,
				Password: string(hashed),
				Name:     u.name,
				Role:     u.role,
			}).Error; err != nil {
				return err
			}
		}
	}

	var tableCount int64
	db.Model(&models.Table{}).Count(&tableCount)
	if tableCount == 0 {
		for i := 1; i <= 12; i++ {
			if err := db.Create(&models.Table{
				Name:     fmt.Sprintf("Masa %d", i),
				Capacity: 4,
				Status:   models.TableAvailable,
			}).Error; err != nil {
				return err
			}
		}
	}

	var catCount int64
	db.Model(&models.Category{}).Count(&catCount)
	if catCount == 0 {
		categories := []models.Category{
			{Name: "Ana Yemekler", Key: "main", Icon: "ph-hamburger"},
			{Name: "Icecekler", Key: "drinks", Icon: "ph-coffee"},
			{Name: "Tatlilar", Key: "desserts", Icon: "ph-cookie"},
			{Name: "Mezeler", Key: "appetizers", Icon: "ph-bowl-food"},
		}
		for i := range categories {
			if err := db.Create(&categories[i]).Error; err != nil {
				return err
			}
		}

		menuItems := []models.MenuItem{
			{Name: "Adana Kebap", Price: 220, CategoryID: categories[0].ID, Available: true},
			{Name: "Urfa Kebap", Price: 200, CategoryID: categories[0].ID, Available: true},
			{Name: "Karisik Izgara", Price: 450, CategoryID: categories[0].ID, Available: true},
			{Name: "Tavuk Sis", Price: 180, CategoryID: categories[0].ID, Available: true},
			{Name: "Lahmacun", Price: 80, CategoryID: categories[0].ID, Available: true},
			{Name: "Pide (Kasarli)", Price: 120, CategoryID: categories[0].ID, Available: true},
			{Name: "Pide (Kiymali)", Price: 140, CategoryID: categories[0].ID, Available: true},
			{Name: "Iskender", Price: 280, CategoryID: categories[0].ID, Available: true},
			{Name: "Ayran", Price: 30, CategoryID: categories[1].ID, Available: true},
			{Name: "Kola", Price: 40, CategoryID: categories[1].ID, Available: true},
			{Name: "Salgam", Price: 35, CategoryID: categories[1].ID, Available: true},
			{Name: "Su", Price: 15, CategoryID: categories[1].ID, Available: true},
			{Name: "Fanta", Price: 40, CategoryID: categories[1].ID, Available: true},
			{Name: "Sprite", Price: 40, CategoryID: categories[1].ID, Available: true},
			{Name: "Cay", Price: 20, CategoryID: categories[1].ID, Available: true},
			{Name: "Turk Kahvesi", Price: 45, CategoryID: categories[1].ID, Available: true},
			{Name: "Kunefe", Price: 150, CategoryID: categories[2].ID, Available: true},
			{Name: "Baklava", Price: 120, CategoryID: categories[2].ID, Available: true},
			{Name: "Sutlac", Price: 70, CategoryID: categories[2].ID, Available: true},
			{Name: "Kadayif", Price: 130, CategoryID: categories[2].ID, Available: true},
			{Name: "Mercimek Corbasi", Price: 60, CategoryID: categories[3].ID, Available: true},
			{Name: "Ezme", Price: 50, CategoryID: categories[3].ID, Available: true},
			{Name: "Humus", Price: 55, CategoryID: categories[3].ID, Available: true},
			{Name: "Cacik", Price: 45, CategoryID: categories[3].ID, Available: true},
			{Name: "Patlican Salatasi", Price: 60, CategoryID: categories[3].ID, Available: true},
		}
		for i := range menuItems {
			if err := db.Create(&menuItems[i]).Error; err != nil {
				return err
			}
		}
	}

	var settingCount int64
	db.Model(&models.Setting{}).Count(&settingCount)
	if settingCount == 0 {
		settings := []models.Setting{
			{Key: "restaurant_name", Value: "Adisyo Restaurant"},
			{Key: "currency", Value: "TL"},
			{Key: "tax_rate", Value: "10"},
			{Key: "print_enabled", Value: "true"},
		}
		for i := range settings {
			if err := db.Create(&settings[i]).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
