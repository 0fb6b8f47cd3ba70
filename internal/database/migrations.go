package database

import (
	"gorm.io/gorm"

	"github.com/thetombrider/objectdms/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.UserRole{},
		&models.Tag{},
		&models.Document{},
		&models.DocumentShare{},
		&models.AuditLog{},
	)
}

// SeedData populates the default roles and their document grants.
// Seeding is idempotent: existing roles keep their current permission set.
func SeedData(db *gorm.DB) error {
	roles := []models.Role{
		{
			BaseModel:   models.BaseModel{ID: "admin"},
			Name:        "Administrator",
			Description: "Unconditional access to all documents",
			IsSystem:    true,
			Permissions: []models.Permission{
				{Resource: "document", Action: "create"},
				{Resource: "document", Action: "read"},
				{Resource: "document", Action: "write"},
				{Resource: "document", Action: "delete"},
				{Resource: "document", Action: "share"},
			},
		},
		{
			BaseModel:   models.BaseModel{ID: "editor"},
			Name:        "Editor",
			Description: "Work on owned documents and documents shared with you",
			IsSystem:    true,
			Permissions: []models.Permission{
				{Resource: "document", Action: "create"},
				{Resource: "document", Action: "read", Conditions: models.ConditionSet{Owner: true, Shared: true}},
				{Resource: "document", Action: "write", Conditions: models.ConditionSet{Owner: true, Shared: true}},
				{Resource: "document", Action: "delete", Conditions: models.ConditionSet{Owner: true}},
				{Resource: "document", Action: "share", Conditions: models.ConditionSet{Owner: true}},
			},
		},
		{
			BaseModel:   models.BaseModel{ID: "viewer"},
			Name:        "Viewer",
			Description: "Read owned documents and documents shared with you",
			IsSystem:    true,
			Permissions: []models.Permission{
				{Resource: "document", Action: "read", Conditions: models.ConditionSet{Owner: true, Shared: true}},
			},
		},
	}

	for _, role := range roles {
		var count int64
		if err := db.Model(&models.Role{}).Where("id = ?", role.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&role).Error; err != nil {
			return err
		}
	}

	return nil
}
