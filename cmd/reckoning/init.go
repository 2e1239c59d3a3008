package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var projectName string
	var driver string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new reckoning project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, driver)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&driver, "driver", "sqlite", "Database driver: sqlite or postgres")
	return cmd
}

func runInit(projectName, driver string) error {
	configPath := "reckoning.yaml"
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	var dsn string
	switch driver {
	case "sqlite":
		dsn = "sqlite://./reckoning.db"
	case "postgres":
		dsn = "postgres://localhost:5432/reckoning"
	default:
		return fmt.Errorf("unsupported database driver: %s", driver)
	}

	contents := fmt.Sprintf(`project: %s
version: 1

database:
  driver: %s
  dsn: %s

classifier:
  min_rule_confidence: 0.7
  enable_ai_fallback: true
  ai_fallback_timeout_ms: 10000
  model: gemini-2.0-flash
  api_key_env: GEMINI_API_KEY
`, projectName, driver, dsn)

	if err := os.WriteFile(configPath, []byte(contents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	return nil
}
