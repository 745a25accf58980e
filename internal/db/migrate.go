package db

import (
	"fmt"

	"github.com/zulandar/concierge/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns every GORM model for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Room{},
		&models.MenuItem{},
		&models.Order{},
		&models.ServiceRequest{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// Reset drops every table and migrates again. All data is lost.
func Reset(db *gorm.DB) error {
	if err := db.Migrator().DropTable(AllModels()...); err != nil {
		return fmt.Errorf("db: drop tables: %w", err)
	}
	return AutoMigrate(db)
}

// SeedRooms creates the given rooms, all available, when the rooms table is
// empty. It returns the number of rooms created.
func SeedRooms(db *gorm.DB, numbers []int) (int, error) {
	var count int64
	if err := db.Model(&models.Room{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("db: count rooms: %w", err)
	}
	if count > 0 || len(numbers) == 0 {
		return 0, nil
	}

	rooms := make([]models.Room, len(numbers))
	for i, n := range numbers {
		rooms[i] = models.Room{RoomNumber: n, IsAvailable: true}
	}
	if err := db.Create(&rooms).Error; err != nil {
		return 0, fmt.Errorf("db: seed rooms: %w", err)
	}
	return len(rooms), nil
}

// UpsertMenu inserts catalog items, updating description, price and
// availability of items whose name already exists.
func UpsertMenu(db *gorm.DB, items []models.MenuItem) error {
	for _, item := range items {
		item := item
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "price", "available"}),
		}).Create(&item)
		if result.Error != nil {
			return fmt.Errorf("db: upsert menu item %q: %w", item.ItemName, result.Error)
		}
	}
	return nil
}

// SeedMenu loads the default catalog when the menu table is empty. It
// returns the number of items created.
func SeedMenu(db *gorm.DB) (int, error) {
	var count int64
	if err := db.Model(&models.MenuItem{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("db: count menu items: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	items := DefaultMenu()
	if err := UpsertMenu(db, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// DefaultMenu is the breakfast catalog installed by `concierge db init`.
func DefaultMenu() []models.MenuItem {
	return []models.MenuItem{
		{ItemName: "Idli", Description: "Steamed rice cakes with sambar and chutney", Price: 40, Available: true},
		{ItemName: "Dosa", Description: "Crispy rice crepe with chutney", Price: 60, Available: true},
		{ItemName: "Masala Dosa", Description: "Dosa filled with spiced potato", Price: 80, Available: true},
		{ItemName: "Vada", Description: "Fried lentil doughnuts", Price: 35, Available: true},
		{ItemName: "Poha", Description: "Flattened rice with peanuts and curry leaves", Price: 45, Available: true},
		{ItemName: "Upma", Description: "Savory semolina porridge", Price: 45, Available: true},
		{ItemName: "Aloo Paratha", Description: "Potato-stuffed flatbread with curd", Price: 70, Available: true},
		{ItemName: "Paneer Paratha", Description: "Cottage-cheese-stuffed flatbread", Price: 90, Available: true},
		{ItemName: "Puri Bhaji", Description: "Fried bread with potato curry", Price: 65, Available: true},
		{ItemName: "Omelette", Description: "Two-egg masala omelette with toast", Price: 50, Available: true},
		{ItemName: "Filter Coffee", Description: "South Indian filter coffee", Price: 25, Available: true},
	}
}
