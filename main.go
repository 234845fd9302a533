package main

import (
	"fmt"
	"os"

	"github.com/biosecret/go-tasks/app"
	"github.com/biosecret/go-tasks/config"
	"github.com/spf13/cobra"
)

var Version = "dev"

// @title                      Tasks API
// @version                    1.0
// @description                Personal task manager with subtasks.
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	rootCmd := &cobra.Command{
		Use:     "taskd",
		Short:   "Personal task manager API",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return app.Migrate(cfg)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return app.SetupAndRunApp(cfg)
}
