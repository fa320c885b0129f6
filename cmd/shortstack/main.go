package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/linhsuan/shortstack/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "shortstack",
	Short:   "URL shortener and static-site hosting platform",
	Long: `Shortstack serves short-link redirects, hosted static sites, and a
management API from a single listener, routed by hostname.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLogging(cfg.Env, cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (env: SHORTSTACK_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (env: SHORTSTACK_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-backend", "", "object store backend: s3, fs (env: SHORTSTACK_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("storage-path", "", "fs backend directory (env: SHORTSTACK_STORAGE_FS_PATH)")
	rootCmd.PersistentFlags().String("site-domain", "", "hostname serving hosted sites")
	rootCmd.PersistentFlags().String("admin-domain", "", "hostname serving the management API")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var files []string
	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		files = append(files, configFile)
	}
	return config.Load(files, cmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
