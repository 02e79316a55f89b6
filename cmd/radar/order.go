package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Manage the manual item order",
}

var orderShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved manual order",
	Args:  cobra.NoArgs,
	RunE:  runOrderShow,
}

var orderMoveCmd = &cobra.Command{
	Use:   "move <item-id> <index>",
	Short: "Move an item to a zero-based position",
	Args:  cobra.ExactArgs(2),
	RunE:  runOrderMove,
}

var orderResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop the manual order and fall back to sorting",
	Args:  cobra.NoArgs,
	RunE:  runOrderReset,
}

func init() {
	orderCmd.AddCommand(orderShowCmd, orderMoveCmd, orderResetCmd)
}

type orderResponse struct {
	Order []string `json:"order"`
}

func runOrderShow(cmd *cobra.Command, args []string) error {
	var res orderResponse
	if err := apiJSON(http.MethodGet, "/order", nil, &res); err != nil {
		return err
	}
	if len(res.Order) == 0 {
		fmt.Println("No manual order saved")
		return nil
	}
	for i, id := range res.Order {
		fmt.Printf("%3d  %s\n", i, id)
	}
	return nil
}

func runOrderMove(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("index must be a number: %w", err)
	}

	var res orderResponse
	body := map[string]any{"id": args[0], "index": index}
	if err := apiJSON(http.MethodPost, "/order/move", body, &res); err != nil {
		return err
	}
	fmt.Printf("Moved %s to position %d\n", truncateID(args[0]), index)
	return nil
}

func runOrderReset(cmd *cobra.Command, args []string) error {
	if err := apiDelete("/order"); err != nil {
		return err
	}
	fmt.Println("Manual order cleared")
	return nil
}
