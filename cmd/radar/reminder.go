package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/radar/internal/models"
)

var reminderCmd = &cobra.Command{
	Use:   "reminder",
	Short: "Manage recurring reminders",
}

var reminderAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a reminder",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReminderAdd,
}

var reminderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reminders",
	Args:  cobra.NoArgs,
	RunE:  runReminderList,
}

var reminderToggleCmd = &cobra.Command{
	Use:   "toggle <reminder-id>",
	Short: "Pause or resume a reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runReminderToggle,
}

var reminderRmCmd = &cobra.Command{
	Use:   "rm <reminder-id>",
	Short: "Delete a reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runReminderRm,
}

var (
	reminderDesc      string
	reminderType      string
	reminderFrequency string
	reminderSchedule  string
	reminderStart     string
	reminderItem      string
)

func init() {
	reminderCmd.AddCommand(reminderAddCmd, reminderListCmd, reminderToggleCmd, reminderRmCmd)

	f := reminderAddCmd.Flags()
	f.StringVar(&reminderDesc, "desc", "", "Description")
	f.StringVar(&reminderType, "type", string(models.ReminderCheck), "check, maintenance or replacement")
	f.StringVar(&reminderFrequency, "every", string(models.FrequencyDaily), "daily, weekly, monthly or custom")
	f.StringVar(&reminderSchedule, "cron", "", "Cron expression for custom frequency")
	f.StringVar(&reminderStart, "start", "", "First due time (RFC 3339); defaults to one period from now")
	f.StringVar(&reminderItem, "item", "", "Item id the reminder is about")
}

func runReminderAdd(cmd *cobra.Command, args []string) error {
	frequency := reminderFrequency
	if reminderSchedule != "" && !cmd.Flags().Changed("every") {
		frequency = string(models.FrequencyCustom)
	}
	body := map[string]any{
		"title":       strings.Join(args, " "),
		"description": reminderDesc,
		"type":        reminderType,
		"frequency":   frequency,
		"schedule":    reminderSchedule,
		"item_id":     reminderItem,
	}
	if reminderStart != "" {
		start, err := time.Parse(time.RFC3339, reminderStart)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		body["next_due"] = start
	}

	var r models.Reminder
	if err := apiJSON(http.MethodPost, "/reminders", body, &r); err != nil {
		return err
	}
	fmt.Printf("Created reminder: %s (next due %s)\n", r.ID, formatTime(r.NextDue))
	return nil
}

func runReminderList(cmd *cobra.Command, args []string) error {
	var list []models.Reminder
	if err := apiJSON(http.MethodGet, "/reminders", nil, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No reminders")
		return nil
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tEVERY\tNEXT DUE\tACTIVE")
	for _, r := range list {
		every := string(r.Frequency)
		if r.Frequency == models.FrequencyCustom {
			every = r.Schedule
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID), truncate(r.Title, 32), r.Type, every, formatTime(r.NextDue), yesNo(r.IsActive))
	}
	w.Flush()
	return nil
}

func runReminderToggle(cmd *cobra.Command, args []string) error {
	var list []models.Reminder
	if err := apiJSON(http.MethodGet, "/reminders", nil, &list); err != nil {
		return err
	}
	for _, r := range list {
		if r.ID != args[0] && truncateID(r.ID) != args[0] {
			continue
		}
		var updated models.Reminder
		if err := apiJSON(http.MethodPatch, "/reminders/"+r.ID, map[string]bool{"is_active": !r.IsActive}, &updated); err != nil {
			return err
		}
		state := "paused"
		if updated.IsActive {
			state = "active"
		}
		fmt.Printf("Reminder %s is now %s\n", truncateID(updated.ID), state)
		return nil
	}
	return fmt.Errorf("reminder %s not found", args[0])
}

func runReminderRm(cmd *cobra.Command, args []string) error {
	if err := apiDelete("/reminders/" + args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted reminder %s\n", args[0])
	return nil
}
