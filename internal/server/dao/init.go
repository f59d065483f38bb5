package dao

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"mast/internal/common"
	"mast/internal/server/model"
)

var db *gorm.DB

// Init opens the database selected by config and migrates the schema.
func Init(cfg common.Config) error {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}

	database, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrate(
		&model.Pipeline{},
		&model.PipelineRun{},
		&model.JobRun{},
		&model.StepRun{},
		&model.User{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	db = database
	return nil
}

// SetDB replaces the shared handle; tests use it with an in-memory
// sqlite database.
func SetDB(database *gorm.DB) {
	db = database
}
