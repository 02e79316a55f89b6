package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/presets"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Browse event packing presets",
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List event presets",
	Args:  cobra.NoArgs,
	RunE:  runPresetList,
}

var presetShowCmd = &cobra.Command{
	Use:   "show <preset-id>",
	Short: "Show a preset checklist",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetShow,
}

var presetApplyCmd = &cobra.Command{
	Use:   "apply <preset-id> [item names...]",
	Short: "Create items from a preset",
	Long:  `Creates the named checklist items as missing items. With no names, every item of the preset is created.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPresetApply,
}

var (
	presetWidth int
	presetPlain bool
)

func init() {
	presetCmd.AddCommand(presetListCmd, presetShowCmd, presetApplyCmd)
	presetShowCmd.Flags().IntVar(&presetWidth, "width", 80, "Wrap width")
	presetShowCmd.Flags().BoolVar(&presetPlain, "plain", false, "Print raw markdown")
}

// The catalog is embedded in the binary, so list and show work without a daemon.
func runPresetList(cmd *cobra.Command, args []string) error {
	all, err := presets.All()
	if err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tITEMS\tESSENTIAL\tDIFFICULTY\tDURATION")
	for _, p := range all {
		fmt.Fprintf(w, "%s\t%s %s\t%d\t%d\t%s\t%s\n",
			p.ID, p.Icon, p.Name, len(p.Items), p.EssentialCount(), p.Difficulty, p.EstimatedDuration)
	}
	w.Flush()
	return nil
}

func runPresetShow(cmd *cobra.Command, args []string) error {
	p, ok, err := presets.Get(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unknown preset %q", args[0])
	}

	if presetPlain || !colorOut {
		fmt.Print(presets.Markdown(p))
		return nil
	}
	out, err := presets.Render(p, presetWidth)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func runPresetApply(cmd *cobra.Command, args []string) error {
	var names []string
	if len(args) > 1 {
		for _, n := range strings.Split(strings.Join(args[1:], " "), ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}

	var items []models.Item
	body := map[string]any{"names": names}
	if err := apiJSON(http.MethodPost, "/presets/"+url.PathEscape(args[0])+"/apply", body, &items); err != nil {
		return err
	}
	fmt.Printf("Created %d items from %s\n", len(items), args[0])
	for _, it := range items {
		fmt.Printf("  %s  %s\n", truncateID(it.ID), it.Name)
	}
	return nil
}
