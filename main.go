package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"gastos/cmd"
	"gastos/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Default logger until the root command has loaded the configuration
	if err := logger.Setup(logger.DefaultConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cmd.Execute()
	os.Exit(0)
}
