package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/fentz26/radar/internal/export"
	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/query"
)

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export items to a spreadsheet",
	Long:  `Writes the matching items, in display order, plus a summary sheet to an .xlsx workbook.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var (
	exportSearch     string
	exportCategories []string
	exportStatuses   []string
	exportEssential  bool
	exportSort       string
	exportDir        string
)

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportSearch, "query", "q", "", "Search text")
	f.StringSliceVar(&exportCategories, "category", nil, "Categories")
	f.StringSliceVar(&exportStatuses, "status", nil, "Statuses")
	f.BoolVar(&exportEssential, "essential", false, "Only essential items")
	f.StringVar(&exportSort, "sort", "", "Sort key")
	f.StringVar(&exportDir, "dir", "", "Sort direction")
}

func runExport(cmd *cobra.Command, args []string) error {
	var snap struct {
		Items []models.Item `json:"items"`
		Order []string      `json:"order"`
	}
	if err := apiJSON(http.MethodGet, "/snapshot", nil, &snap); err != nil {
		return err
	}

	filter := models.FilterSpec{
		SearchText:    exportSearch,
		Categories:    exportCategories,
		EssentialOnly: exportEssential,
	}
	for _, s := range exportStatuses {
		st, err := models.ParseItemStatus(s)
		if err != nil {
			return err
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	key, err := models.ParseSortKey(exportSort)
	if err != nil {
		return err
	}
	dir, err := models.ParseSortDirection(exportDir)
	if err != nil {
		return err
	}

	items := query.Apply(snap.Items, filter, models.SortSpec{Key: key, Direction: dir}, snap.Order)
	if err := export.WriteXLSX(args[0], items, query.Summarize(items)); err != nil {
		return err
	}
	fmt.Printf("Exported %d items to %s\n", len(items), args[0])
	return nil
}
