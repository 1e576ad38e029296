package common

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ConnectDb opens PostgreSQL when DATABASE_URL is configured and falls back
// to a local sqlite file otherwise.
func ConnectDb(cfg Config) *gorm.DB {
	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	}

	if cfg.DatabaseURL != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), gormConfig)
		if err != nil {
			log.Println("Error opening postgres db: " + err.Error())
			return nil
		}
		log.Println("opened postgres db")
		return db
	}

	if cfg.SqliteDB == "" {
		log.Println("SQLITE_DB not set")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(cfg.SqliteDB), gormConfig)
	if err != nil {
		log.Println("Error opening sqlite db: " + err.Error())
		return nil
	}
	log.Println("opened sqlite db at:", cfg.SqliteDB)
	return db
}
