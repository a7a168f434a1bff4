// Package testutil 测试用的 sqlite 内存数据库与夹具
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"abroad/internal/database"
	"abroad/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB 每个测试独立的内存数据库，已完成迁移
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// 单连接避免 sqlite 共享缓存的表锁
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateOrganization 创建机构
func CreateOrganization(t *testing.T, db *gorm.DB, name string) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: name, Status: models.OrganizationStatusActive}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("create organization: %v", err)
	}
	return org
}

// CreateCountry 创建国家参考数据
func CreateCountry(t *testing.T, db *gorm.DB, name, code string) *models.Country {
	t.Helper()
	country := &models.Country{Name: name, Code: code}
	if err := db.Create(country).Error; err != nil {
		t.Fatalf("create country: %v", err)
	}
	return country
}
