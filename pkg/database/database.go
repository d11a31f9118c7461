package database

import (
	"fmt"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	applog "learnhub_backend/pkg/logger"
	"os"
	"path/filepath"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go.uber.org/zap"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.DBName,
			cfg.SSLMode,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			os.MkdirAll(dir, 0755)
		}
		return sqlite.Open(cfg.Path + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Options 返回项目统一的 gorm 配置，TranslateError 让唯一约束冲突变成 gorm.ErrDuplicatedKey
func Options(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

func InitDB(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if mode == "debug" {
		level = logger.Info
	}

	db, err := gorm.Open(d, Options(level))
	if err != nil {
		return nil, err
	}

	if cfg.Driver == "sqlite" {
		// sqlite 单写者，多连接只会得到 database is locked
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	applog.Log.Info("Database connection established", zap.String("driver", cfg.Driver))

	if err := Migrate(db); err != nil {
		return nil, err
	}

	applog.Log.Info("Database migration completed")

	return db, nil
}

// Migrate 建表，测试中的 sqlite 内存库同样调用
func Migrate(db *gorm.DB) error {
	joins := []struct {
		owner interface{}
		field string
		join  interface{}
	}{
		{&model.Course{}, "Students", &model.CourseStudent{}},
		{&model.CourseProgress{}, "CompletedModules", &model.ProgressCompletedModule{}},
		{&model.CourseProgress{}, "CompletedContents", &model.ProgressCompletedContent{}},
	}
	for _, j := range joins {
		if err := db.SetupJoinTable(j.owner, j.field, j.join); err != nil {
			return fmt.Errorf("setup join table %s: %w", j.field, err)
		}
	}

	return db.AutoMigrate(
		&model.User{},
		&model.Subject{},
		&model.Course{},
		&model.Module{},
		&model.Content{},
		&model.Text{},
		&model.Video{},
		&model.Image{},
		&model.File{},
		&model.CourseProgress{},
		&model.Test{},
		&model.Question{},
		&model.Answer{},
	)
}
