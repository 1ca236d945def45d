package db

import (
	"log"
	"time"

	"github.com/Zara8170/song-ai/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewMySQL abre la conexión GORM contra el catálogo de canciones.
func NewMySQL(cfg *config.Config) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("[mysql] error conectando: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("[mysql] no se pudo obtener *sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("✅ MySQL OK.")
	return gdb
}
