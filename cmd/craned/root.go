package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"crane-booking-backend/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "craned",
		Short:         "Crane reservation scheduling service",
		SilenceUsage:  true,
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml" // Default path for local development
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultPath, "path to the YAML configuration file")

	load := func() (*config.Config, *log.Logger, error) {
		logger := log.New(os.Stdout, "craned ", log.LstdFlags)
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("configuration loaded successfully from %s", configPath)
		return cfg, logger, nil
	}

	root.AddCommand(newServeCmd(load))
	root.AddCommand(newMigrateCmd(load))
	root.AddCommand(newTokenCmd(load))
	return root
}

type configLoader func() (*config.Config, *log.Logger, error)
