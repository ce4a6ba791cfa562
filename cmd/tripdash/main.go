package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/opencitylabs/tripdash/config"
	srv "github.com/opencitylabs/tripdash/internal/server"
)

func main() {
	root := &cobra.Command{Use: "tripdash", Short: "Bike-share analytics dashboard"}
	root.AddCommand(serveCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCMD() *cobra.Command {
	var cfgPath string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return srv.Run(cfg)
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")
	return serve
}
