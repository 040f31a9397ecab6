package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/mailbear/mailbear/internal/logger"
)

func InitConfig() (*Config, error) {
	config := &Config{
		Paths:  &PathsConfig{},
		Logger: &logger.Config{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading mailbear config: %v", err)
	}

	config.Paths.expand()
	return config, nil
}
