package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/reader"
	"github.com/fentz26/radar/internal/store"
)

var scanCmd = &cobra.Command{
	Use:   "scan [tag...]",
	Short: "Apply a bulk RFID scan",
	Long: `Marks every item whose tag was scanned as detected and every other tagged
item as missing. Tags may be given as arguments or, with --reader, read from
an external command's output.`,
	RunE: runScan,
}

var scanResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Mark every item missing",
	Args:  cobra.NoArgs,
	RunE:  runScanReset,
}

var scanTagCmd = &cobra.Command{
	Use:   "tag <rfid>",
	Short: "Set the status of the item carrying one tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanTag,
}

var (
	scanLocation string
	scanReader   string
	scanStatus   string
)

func init() {
	scanCmd.AddCommand(scanResetCmd, scanTagCmd)
	scanCmd.Flags().StringVar(&scanLocation, "location", "", "Where the scan happened")
	scanCmd.Flags().StringVar(&scanReader, "reader", "", "Command whose output lists scanned tags")
	scanTagCmd.Flags().StringVar(&scanStatus, "status", string(models.ItemStatusDetected), "detected or missing")
	scanTagCmd.Flags().StringVar(&scanLocation, "location", "", "Where the tag was seen")
}

func runScan(cmd *cobra.Command, args []string) error {
	tags := reader.ParseTags(strings.Join(args, " "))
	if scanReader != "" {
		parts := strings.Fields(scanReader)
		read, err := reader.NewCommand(parts[0], parts[1:], 0).Read(cmd.Context())
		if err != nil {
			return err
		}
		tags = append(tags, read...)
	}
	if len(tags) == 0 {
		return fmt.Errorf("no tags given")
	}

	var res store.ScanResult
	body := map[string]any{"tags": tags, "location": scanLocation}
	if err := apiJSON(http.MethodPost, "/scan", body, &res); err != nil {
		return err
	}

	fmt.Printf("Detected:       %d\n", len(res.Detected))
	fmt.Printf("Marked missing: %d\n", res.MarkedMissing)
	if len(res.Unknown) > 0 {
		fmt.Printf("Unknown tags:   %s\n", strings.Join(res.Unknown, ", "))
	}
	return nil
}

func runScanReset(cmd *cobra.Command, args []string) error {
	var res struct {
		Reset int `json:"reset"`
	}
	if err := apiJSON(http.MethodPost, "/scan/reset", nil, &res); err != nil {
		return err
	}
	fmt.Printf("%d items marked missing\n", res.Reset)
	return nil
}

func runScanTag(cmd *cobra.Command, args []string) error {
	body := map[string]string{"status": scanStatus, "location": scanLocation}
	var it models.Item
	if err := apiJSON(http.MethodPost, "/rfid/"+url.PathEscape(args[0]), body, &it); err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", it.Name, formatStatus(it.Status))
	return nil
}
