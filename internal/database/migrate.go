package database

import (
	"abroad/internal/models"
	"abroad/pkg/logger"

	"gorm.io/gorm"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	if err := AutoMigrate(DB); err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}

// AutoMigrate 迁移所有模型（测试中对 sqlite 复用）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Organization{},
		&models.Permission{},
		&models.Role{},
		&models.User{},
		&models.Country{},
		// 留学业务
		&models.ApplicationProcess{},
		&models.RepresentingCountry{},
		&models.RepCountryStatus{},
		&models.SubStatus{},
	)
}
