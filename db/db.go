package db

import (
	"os"
	"path/filepath"

	"aura/config"
	"aura/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

var conf config.Configuration

func SetConfigurations(configuration config.Configuration) {
	conf = configuration
}

// Connect opens the database (sqlite3 by default) and runs the automigrate
// when AUTOMIGRATE=1. Both insight storage layouts are migrated so a fresh
// install serves from the current one while still reading legacy rows.
func Connect() (*gorm.DB, error) {
	database := conf.Database
	if database == "" {
		database = "sqlite3"
	}

	var (
		db  *gorm.DB
		err error
	)

	if database == "postgres" || database == "postgresql" {
		config.Logger.Info().Msg("connecting to postgresql")
		path := "host=" + conf.DbHost + " port=" + conf.DbPort
		path += " user=" + conf.DbUser + " dbname=" + conf.DbName
		path += " password=" + conf.DbPass
		db, err = gorm.Open("postgres", path)
	} else {
		config.Logger.Info().Msg("connecting to sqlite3")
		dir := filepath.Dir("db/database.db")
		db, err = gorm.Open("sqlite3", dir+"/database.db")
	}

	if err != nil {
		config.Logger.Error().Err(err).Msg("database connection failed")
		return nil, err
	}

	if getenv("AUTOMIGRATE", "0") == "1" {
		db.AutoMigrate(
			&models.User{},
			&models.QuizAttempt{},
			&models.CheckIn{},
			&models.JournalEntry{},
			&models.UserInsight{},
			&models.UserProfile{},
			&models.InsightLock{},
		)
	}

	return db, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
