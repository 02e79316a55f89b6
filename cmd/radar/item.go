package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/query"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage tracked items",
}

var itemAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new item",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runItemAdd,
}

var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items through the query engine",
	RunE:  runItemList,
}

var itemShowCmd = &cobra.Command{
	Use:   "show <item-id>",
	Short: "Show item details",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemShow,
}

var itemEditCmd = &cobra.Command{
	Use:   "edit <item-id>",
	Short: "Change item fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemEdit,
}

var itemRmCmd = &cobra.Command{
	Use:   "rm <item-id>",
	Short: "Delete an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemRm,
}

var (
	itemDesc      string
	itemRFID      string
	itemCategory  string
	itemEssential bool
	itemStatus    string
	itemLocation  string
	itemName      string

	listSearch     string
	listCategories []string
	listStatuses   []string
	listEssential  bool
	listFrom       string
	listTo         string
	listSort       string
	listDir        string
	listPage       int
	listPageSize   int
	listNoManual   bool
	listPreset     string
)

func init() {
	itemCmd.AddCommand(itemAddCmd, itemListCmd, itemShowCmd, itemEditCmd, itemRmCmd)

	for _, c := range []*cobra.Command{itemAddCmd, itemEditCmd} {
		c.Flags().StringVar(&itemDesc, "desc", "", "Description")
		c.Flags().StringVar(&itemRFID, "rfid", "", "RFID tag id")
		c.Flags().StringVar(&itemCategory, "category", "", "Category")
		c.Flags().BoolVar(&itemEssential, "essential", false, "Mark as essential")
		c.Flags().StringVar(&itemStatus, "status", "", "detected or missing")
		c.Flags().StringVar(&itemLocation, "location", "", "Last known location")
	}
	itemEditCmd.Flags().StringVar(&itemName, "name", "", "New name")

	f := itemListCmd.Flags()
	f.StringVarP(&listSearch, "query", "q", "", "Search name, description and category")
	f.StringSliceVar(&listCategories, "category", nil, "Restrict to categories (repeatable)")
	f.StringSliceVar(&listStatuses, "status", nil, "Restrict to statuses (repeatable)")
	f.BoolVar(&listEssential, "essential", false, "Only essential items")
	f.StringVar(&listFrom, "from", "", "Last seen on or after (2025-01-31 or RFC 3339)")
	f.StringVar(&listTo, "to", "", "Last seen on or before")
	f.StringVar(&listSort, "sort", "", "Sort key: name, category, status, lastSeen, essential")
	f.StringVar(&listDir, "dir", "", "Sort direction: asc or desc")
	f.IntVar(&listPage, "page", 1, "Page number")
	f.IntVar(&listPageSize, "page-size", 0, "Items per page (0 shows all)")
	f.BoolVar(&listNoManual, "no-manual", false, "Ignore the saved manual order")
	f.StringVar(&listPreset, "preset", "", "Start from a saved filter preset")
}

func runItemAdd(cmd *cobra.Command, args []string) error {
	body := map[string]any{
		"name":         strings.Join(args, " "),
		"description":  itemDesc,
		"rfid":         itemRFID,
		"category":     itemCategory,
		"is_essential": itemEssential,
		"status":       itemStatus,
		"location":     itemLocation,
	}

	var item models.Item
	if err := apiJSON(http.MethodPost, "/items", body, &item); err != nil {
		return err
	}
	fmt.Printf("Created item: %s (%s)\n", item.ID, item.Name)
	return nil
}

// listValues turns the list flags into engine query parameters. Flags that
// were set explicitly override the preset.
func listValues(cmd *cobra.Command) (url.Values, error) {
	v := url.Values{}
	if listPreset != "" {
		var p models.FilterPreset
		if err := apiJSON(http.MethodGet, "/filters/"+url.PathEscape(listPreset), nil, &p); err != nil {
			return nil, err
		}
		presetValues(v, p)
	}

	changed := cmd.Flags().Changed
	if changed("query") {
		v.Set("q", listSearch)
	}
	if changed("category") {
		v.Set("category", strings.Join(listCategories, ","))
	}
	if changed("status") {
		v.Set("status", strings.Join(listStatuses, ","))
	}
	if changed("essential") {
		v.Set("essential", strconv.FormatBool(listEssential))
	}
	if changed("from") {
		v.Set("from", listFrom)
	}
	if changed("to") {
		v.Set("to", listTo)
	}
	if changed("sort") {
		v.Set("sort", listSort)
	}
	if changed("dir") {
		v.Set("dir", listDir)
	}
	v.Set("page", strconv.Itoa(listPage))
	v.Set("page_size", strconv.Itoa(listPageSize))
	if listNoManual {
		v.Set("manual", "false")
	}
	return v, nil
}

func presetValues(v url.Values, p models.FilterPreset) {
	f := p.Filter
	if f.SearchText != "" {
		v.Set("q", f.SearchText)
	}
	if len(f.Categories) > 0 {
		v.Set("category", strings.Join(f.Categories, ","))
	}
	for _, s := range f.Statuses {
		v.Add("status", string(s))
	}
	if f.EssentialOnly {
		v.Set("essential", "true")
	}
	if f.DateFrom != "" {
		v.Set("from", f.DateFrom)
	}
	if f.DateTo != "" {
		v.Set("to", f.DateTo)
	}
	v.Set("sort", string(p.Sort.Key))
	v.Set("dir", string(p.Sort.Direction))
}

func runItemList(cmd *cobra.Command, args []string) error {
	v, err := listValues(cmd)
	if err != nil {
		return err
	}

	var res query.Result
	if err := apiJSON(http.MethodGet, "/items?"+v.Encode(), nil, &res); err != nil {
		return err
	}

	if res.TotalMatched == 0 {
		fmt.Println("No items found")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSTATUS\tESSENTIAL\tLAST SEEN\tLOCATION")
	for _, it := range res.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(it.ID), truncate(it.Name, 32), it.Category, formatStatus(it.Status),
			yesNo(it.IsEssential), formatTime(it.LastSeen), it.Location)
	}
	w.Flush()
	if res.TotalPages > 1 {
		fmt.Printf("\nPage %d of %d (%d items)\n", res.Page, res.TotalPages, res.TotalMatched)
	}
	return nil
}

func runItemShow(cmd *cobra.Command, args []string) error {
	var it models.Item
	if err := apiJSON(http.MethodGet, "/items/"+args[0], nil, &it); err != nil {
		return err
	}

	fmt.Printf("ID:          %s\n", it.ID)
	fmt.Printf("Name:        %s\n", it.Name)
	if it.Description != "" {
		fmt.Printf("Description: %s\n", it.Description)
	}
	fmt.Printf("Category:    %s\n", it.Category)
	fmt.Printf("Status:      %s\n", formatStatus(it.Status))
	fmt.Printf("Essential:   %s\n", yesNo(it.IsEssential))
	if it.RFID != "" {
		fmt.Printf("RFID:        %s\n", it.RFID)
	}
	fmt.Printf("Last Seen:   %s\n", formatTime(it.LastSeen))
	if it.Location != "" {
		fmt.Printf("Location:    %s\n", it.Location)
	}
	fmt.Printf("Created:     %s\n", formatTime(it.CreatedAt))
	fmt.Printf("Updated:     %s\n", formatTime(it.UpdatedAt))
	return nil
}

func runItemEdit(cmd *cobra.Command, args []string) error {
	patch := map[string]any{}
	changed := cmd.Flags().Changed
	if changed("name") {
		patch["name"] = itemName
	}
	if changed("desc") {
		patch["description"] = itemDesc
	}
	if changed("rfid") {
		patch["rfid"] = itemRFID
	}
	if changed("category") {
		patch["category"] = itemCategory
	}
	if changed("essential") {
		patch["is_essential"] = itemEssential
	}
	if changed("status") {
		patch["status"] = itemStatus
	}
	if changed("location") {
		patch["location"] = itemLocation
	}
	if len(patch) == 0 {
		return fmt.Errorf("nothing to change")
	}

	resp, err := apiPatch("/items/"+args[0], patch)
	if err != nil {
		return err
	}
	var it models.Item
	if err := json.Unmarshal(resp, &it); err != nil {
		return err
	}
	fmt.Printf("Updated item: %s (%s)\n", it.ID, it.Name)
	return nil
}

func runItemRm(cmd *cobra.Command, args []string) error {
	if err := apiDelete("/items/" + args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted item %s\n", args[0])
	return nil
}
