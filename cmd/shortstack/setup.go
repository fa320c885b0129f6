package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively write a config file",
	Long: `Walk through the server settings and write them to a yaml config
file. Existing files are only overwritten after confirmation.`,
	// the root hook loads config; setup runs before one exists
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error { return nil },
	RunE:              runSetup,
}

var setupOutput string

func init() {
	setupCmd.Flags().StringVar(&setupOutput, "output", "config.yaml", "path of the config file to write")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(setupOutput); err == nil {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", setupOutput),
			IsConfirm: true,
		}
		if _, promptErr := confirm.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	port, err := promptInt("HTTP port", "5710")
	if err != nil {
		return handlePromptError(err)
	}

	siteDomain, err := promptString("Site hosting domain", "sites.localhost")
	if err != nil {
		return handlePromptError(err)
	}

	adminDomain, err := promptString("Admin domain", "admin.localhost")
	if err != nil {
		return handlePromptError(err)
	}

	publicBase, err := promptOptional("Public base URL for error pages (optional)")
	if err != nil {
		return handlePromptError(err)
	}

	dbType, err := promptSelect("Database type", []string{"sqlite", "postgres"})
	if err != nil {
		return handlePromptError(err)
	}

	dsnDefault := "shortstack.db"
	if dbType == "postgres" {
		dsnDefault = "postgres://localhost:5432/shortstack"
	}
	dsn, err := promptString("Database DSN", dsnDefault)
	if err != nil {
		return handlePromptError(err)
	}

	backend, err := promptSelect("Object store backend", []string{"fs", "s3"})
	if err != nil {
		return handlePromptError(err)
	}

	storage := map[string]any{"backend": backend}
	switch backend {
	case "fs":
		path, promptErr := promptString("Storage directory", "./data")
		if promptErr != nil {
			return handlePromptError(promptErr)
		}
		storage["fs"] = map[string]any{"path": path}

	case "s3":
		bucket, promptErr := promptString("S3 bucket", "")
		if promptErr != nil {
			return handlePromptError(promptErr)
		}
		region, promptErr := promptString("S3 region", "us-east-1")
		if promptErr != nil {
			return handlePromptError(promptErr)
		}
		accessKey, promptErr := promptOptional("S3 access key (empty for ambient credentials)")
		if promptErr != nil {
			return handlePromptError(promptErr)
		}
		s3cfg := map[string]any{"bucket": bucket, "region": region}
		if accessKey != "" {
			secretPrompt := promptui.Prompt{Label: "S3 secret key", Mask: '*'}
			secretKey, secretErr := secretPrompt.Run()
			if secretErr != nil {
				return handlePromptError(secretErr)
			}
			s3cfg["access_key"] = accessKey
			s3cfg["secret_key"] = secretKey
		}
		endpoint, promptErr := promptOptional("S3 endpoint override (optional)")
		if promptErr != nil {
			return handlePromptError(promptErr)
		}
		if endpoint != "" {
			s3cfg["endpoint"] = endpoint
		}
		storage["s3"] = s3cfg
	}

	env, err := promptSelect("Environment", []string{"dev", "prod"})
	if err != nil {
		return handlePromptError(err)
	}

	logLevel, err := promptSelect("Log level", []string{"debug", "info", "warn", "error"})
	if err != nil {
		return handlePromptError(err)
	}

	domains := map[string]any{
		"site_hosting": siteDomain,
		"admin":        adminDomain,
	}
	if publicBase != "" {
		domains["public_base_url"] = publicBase
	}

	out := map[string]any{
		"env":      env,
		"server":   map[string]any{"port": port},
		"domains":  domains,
		"database": map[string]any{"type": dbType, "dsn": dsn},
		"storage":  storage,
		"log":      map[string]any{"level": logLevel},
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(setupOutput, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s.\n", setupOutput)
	fmt.Println("Start the server with: shortstack serve --config " + setupOutput)
	return nil
}

func promptString(label, def string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
		Validate: func(input string) error {
			if input == "" {
				return errors.New("a value is required")
			}
			return nil
		},
	}
	return prompt.Run()
}

func promptOptional(label string) (string, error) {
	prompt := promptui.Prompt{Label: label}
	return prompt.Run()
}

func promptInt(label, def string) (int, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
		Validate: func(input string) error {
			n, err := strconv.Atoi(input)
			if err != nil || n < 1 || n > 65535 {
				return errors.New("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	raw, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

func promptSelect(label string, items []string) (string, error) {
	sel := promptui.Select{Label: label, Items: items}
	_, value, err := sel.Run()
	return value, err
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
