package app

import (
	"fmt"
	"path"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/openmart/storecore/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// getDatabase opens the gorm handle. Postgres is the production store; the
// sqlite type keeps single-binary development setups working.
func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Type {
	case "sqlite":
		dbfile := path.Join(workdir, "data", cfg.Name+".db")
		db, err = gorm.Open(sqlite.Open(dbfile), gormCfg)
	default:
		dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=disable TimeZone=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Name, cfg.Passwd, time.Local.String())
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	}
	if err != nil {
		zap.S().Panicf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db
}
