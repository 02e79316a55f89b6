package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fentz26/radar/internal/models"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Manage saved filter presets",
}

var filterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and saved filter presets",
	Args:  cobra.NoArgs,
	RunE:  runFilterList,
}

var filterSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the given filter and sort under a name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFilterSave,
}

var filterRmCmd = &cobra.Command{
	Use:   "rm <preset-id>",
	Short: "Delete a saved filter preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilterRm,
}

var (
	filterSearch     string
	filterCategories []string
	filterStatuses   []string
	filterEssential  bool
	filterFrom       string
	filterTo         string
	filterSort       string
	filterDir        string
)

func init() {
	filterCmd.AddCommand(filterListCmd, filterSaveCmd, filterRmCmd)

	f := filterSaveCmd.Flags()
	f.StringVarP(&filterSearch, "query", "q", "", "Search text")
	f.StringSliceVar(&filterCategories, "category", nil, "Categories")
	f.StringSliceVar(&filterStatuses, "status", nil, "Statuses")
	f.BoolVar(&filterEssential, "essential", false, "Only essential items")
	f.StringVar(&filterFrom, "from", "", "Last seen on or after")
	f.StringVar(&filterTo, "to", "", "Last seen on or before")
	f.StringVar(&filterSort, "sort", "name", "Sort key")
	f.StringVar(&filterDir, "dir", "asc", "Sort direction")
}

func runFilterList(cmd *cobra.Command, args []string) error {
	var presets []models.FilterPreset
	if err := apiJSON(http.MethodGet, "/filters", nil, &presets); err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tFILTER\tSORT\tBUILT-IN")
	for _, p := range presets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\n",
			p.ID, p.Name, describeFilter(p.Filter), p.Sort.Key, p.Sort.Direction, yesNo(p.BuiltIn))
	}
	w.Flush()
	return nil
}

func describeFilter(f models.FilterSpec) string {
	var parts []string
	if f.SearchText != "" {
		parts = append(parts, "q="+f.SearchText)
	}
	if len(f.Categories) > 0 {
		parts = append(parts, "category="+strings.Join(f.Categories, ","))
	}
	if len(f.Statuses) > 0 {
		st := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			st[i] = string(s)
		}
		parts = append(parts, "status="+strings.Join(st, ","))
	}
	if f.EssentialOnly {
		parts = append(parts, "essential")
	}
	if f.DateFrom != "" || f.DateTo != "" {
		parts = append(parts, "seen="+f.DateFrom+".."+f.DateTo)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func runFilterSave(cmd *cobra.Command, args []string) error {
	statuses := make([]models.ItemStatus, 0, len(filterStatuses))
	for _, s := range filterStatuses {
		st, err := models.ParseItemStatus(s)
		if err != nil {
			return err
		}
		statuses = append(statuses, st)
	}

	body := map[string]any{
		"name": strings.Join(args, " "),
		"filter": models.FilterSpec{
			SearchText:    filterSearch,
			Categories:    filterCategories,
			Statuses:      statuses,
			EssentialOnly: filterEssential,
			DateFrom:      filterFrom,
			DateTo:        filterTo,
		},
		"sort": models.SortSpec{Key: models.SortKey(filterSort), Direction: models.SortDirection(filterDir)},
	}

	var p models.FilterPreset
	if err := apiJSON(http.MethodPost, "/filters", body, &p); err != nil {
		return err
	}
	fmt.Printf("Saved filter preset: %s\n", p.ID)
	return nil
}

func runFilterRm(cmd *cobra.Command, args []string) error {
	if err := apiDelete("/filters/" + url.PathEscape(args[0])); err != nil {
		return err
	}
	fmt.Printf("Deleted filter preset %s\n", args[0])
	return nil
}
