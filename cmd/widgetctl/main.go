package main

import (
	"fmt"
	"os"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/cli"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var version = "dev"

func openStore(dsn string) (cli.Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return agent.NewStore(db), nil
}

func main() {
	_ = godotenv.Load()

	if err := cli.NewRootCmd(openStore, version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
