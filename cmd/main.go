// cmd/main.go is the application entry point.
// It wires together all layers behind a small set of cobra commands.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/campus-events/internal/config"
)

var (
	envFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "campus-events",
	Short: "Campus event registration service",
	Long: `Campus event registration service: capacity-bounded registration with
waitlists, attendance tracking and registration notifications.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		return err
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, usersCmd, reconcileCmd)
}

func main() {
	log.SetFlags(log.LstdFlags | log.LUTC)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
