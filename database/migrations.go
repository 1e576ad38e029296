package database

import (
	"log"

	"pine/models"

	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.SocialLink{},
		&models.Collection{},
		&models.Mood{},
		&models.Chapter{},
		&models.Entry{},
		&models.RevokedToken{},
	)

	if err != nil {
		log.Printf("Error running migrations: %v", err)
		return err
	}

	log.Println("Migrations completed successfully")
	return nil
}
