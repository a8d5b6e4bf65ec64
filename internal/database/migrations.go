package database

import (
	"log"

	"gorm.io/gorm"
)

// RunMigrations runs schema changes AutoMigrate cannot express.
// Each step is safe to run on every startup.
func RunMigrations(db *gorm.DB) error {
	if err := createCategoryIndex(db); err != nil {
		return err
	}
	return nil
}

// createCategoryIndex backs the equality query used to filter a collection by
// category. AutoMigrate only knows column indexes, not expression indexes.
func createCategoryIndex(db *gorm.DB) error {
	if db.Migrator().HasIndex("documents", "idx_documents_parent_category") {
		return nil
	}

	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_parent_category
		ON documents (parent, json_extract(value, '$.category'))
	`).Error
	if err != nil {
		return err
	}

	log.Println("Created documents category index")
	return nil
}
