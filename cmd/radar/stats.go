package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/fentz26/radar/internal/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show readiness statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the categories in use",
	Args:  cobra.NoArgs,
	RunE:  runCategories,
}

func runStats(cmd *cobra.Command, args []string) error {
	var st models.Stats
	if err := apiJSON(http.MethodGet, "/stats", nil, &st); err != nil {
		return err
	}

	fmt.Println(paint(headingStyle, "Readiness"))
	fmt.Printf("  Items:             %d\n", st.Total)
	fmt.Printf("  Detected:          %s\n", paint(detectedStyle, fmt.Sprint(st.Detected)))
	fmt.Printf("  Missing:           %s\n", paint(missingStyle, fmt.Sprint(st.Missing)))
	fmt.Printf("  Essential missing: %d of %d\n", st.EssentialMissing, st.Essential)
	fmt.Printf("  Ready:             %d%%\n", st.CompletionPercent)

	if len(st.Categories) > 0 {
		fmt.Println()
		w := newTable()
		fmt.Fprintln(w, "CATEGORY\tITEMS\tSHARE")
		for _, c := range st.Categories {
			fmt.Fprintf(w, "%s\t%d\t%d%%\n", c.Category, c.Count, c.Percentage)
		}
		w.Flush()
	}

	if len(st.MissingEssential) > 0 {
		fmt.Println()
		fmt.Println(paint(missingStyle, "Missing essentials:"))
		for _, it := range st.MissingEssential {
			fmt.Printf("  - %s\n", it.Name)
		}
	}
	return nil
}

func runCategories(cmd *cobra.Command, args []string) error {
	var cats []string
	if err := apiJSON(http.MethodGet, "/categories", nil, &cats); err != nil {
		return err
	}
	if len(cats) == 0 {
		fmt.Println("No categories")
		return nil
	}
	for _, c := range cats {
		fmt.Println(c)
	}
	return nil
}
