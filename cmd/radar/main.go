package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fentz26/radar/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Dark Horse Radar - RFID item tracker",
	Long: `Radar tracks tagged belongings. The daemon keeps items, manual orderings,
filter presets and reminders; the CLI and TUI query it over HTTP.`,
	SilenceUsage: true,
}

var (
	apiAddr    string
	apiToken   string
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:7467", "API server address")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("RADAR_TOKEN"), "Bearer token when the daemon has auth enabled")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(itemCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(presetCmd)
	rootCmd.AddCommand(reminderCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
