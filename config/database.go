package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the submissions store: submissions, canonical states, audit transactions.
var DB *gorm.DB

// WorkflowDB is the workflow-tracking store: workflow runs and their step rows.
// The two stores are independent connections; there is no cross-store transaction.
var WorkflowDB *gorm.DB

func gormConfig() *gorm.Config {
	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	debugSQL := strings.ToLower(os.Getenv("DEBUG_SQL"))

	// In production, suppress SQL logs unless explicitly re-enabled via DEBUG_SQL=true.
	logLevel := logger.Info
	if environment == "production" && debugSQL != "true" {
		logLevel = logger.Warn
	}

	return &gorm.Config{
		Logger: logger.New(
			log.New(LogWriter, "\r\n", log.LstdFlags),
			logger.Config{LogLevel: logLevel},
		),
	}
}

func openStore(prefix string) *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		os.Getenv(prefix+"_USERNAME"),
		os.Getenv(prefix+"_PASSWORD"),
		os.Getenv(prefix+"_HOST"),
		os.Getenv(prefix+"_PORT"),
		os.Getenv(prefix+"_DATABASE"),
	)

	db, err := gorm.Open(mysql.Open(dsn), gormConfig())
	if err != nil {
		log.Fatalf("Failed to connect to %s store: %v", strings.ToLower(strings.ReplaceAll(prefix, "_", " ")), err)
	}
	return db
}

// InitDB connects both backing stores from environment variables.
// The submissions store uses DB_*, the workflow-tracking store WORKFLOW_DB_*.
func InitDB() {
	DB = openStore("DB")
	WorkflowDB = openStore("WORKFLOW_DB")

	log.Println("Submissions and workflow stores connected successfully")
}
