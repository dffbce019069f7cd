// Command starter-admin is an operator CLI for the starter-server API.
package main

import (
	"fmt"
	"log"
	"os"

	"starter-server/cmd/starter-admin/internal/commands"

	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "starter-admin",
		Short: "Administer a starter-server instance",
		Long: `starter-admin talks to the starter-server REST API.

The API base URL is resolved from API_BASE_URL, API_PUBLIC_URL (production),
API_INTERNAL_URL or http://localhost:$PORT, unless --api-url is given.
The session token is stored under $XDG_CONFIG_HOME/starter-admin/token.`,
		SilenceUsage: true,
	}

	if err := commands.Init(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize commands: %w", err)
	}

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}
	return nil
}

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}
