package database

import "playhub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Parents come before children so foreign keys resolve during AutoMigrate.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Game{},
		&models.Category{},
		&models.GameCategory{},
		&models.Reaction{},
		&models.Page{},
		&models.User{},
		&models.Admin{},
	}
}
