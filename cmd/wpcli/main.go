package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/guardops/watchpost/cmd/watchpost/config"
	"github.com/guardops/watchpost/internal/workday"
	"github.com/guardops/watchpost/storage/model"
)

var rootCmd = &cobra.Command{
	Use:   "wpcli",
	Short: "wpcli can help you manage your watchpost data",
	Long:  "wpcli can help you manage your watchpost data",
}

var configFile string
var storages model.Backends

func loadConfig() error {
	config.Load(configFile)
	c := config.Get()

	var err error
	storages, err = config.LoadStorageBackends(c.Storage, c.Buildings)
	return err
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect and manage abnormal events",
}

var eventsListFilter model.EventFilter

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List abnormal events",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		list, err := storages.Events.List(eventsListFilter)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "DISPLAY ID\tBUILDING\tTYPE\tSTATUS\tCREATED")
		for _, e := range list {
			fmt.Fprintf(
				w, "%s\t%s\t%s\t%s\t%s\n",
				e.DisplayID, e.Building, e.Type, e.Status, e.CreatedAt,
			)
		}
		return w.Flush()
	},
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <id|displayId>",
	Short: "Print one event record as json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		ev, err := storages.Events.Get(args[0])
		if err != nil {
			if _, ok := err.(model.NotFoundError); ok {
				ev, err = storages.Events.GetByDisplayID(args[0])
			}
			if err != nil {
				return err
			}
		}
		data, err := json.MarshalIndent(ev, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var eventsStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Change an event's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		return storages.Events.UpdateStatus(args[0], args[1])
	},
}

var statsMonth string
var statsHolidays []string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the monthly upload-compliance matrix",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		if statsMonth == "" {
			statsMonth = time.Now().Format("2006-01")
		}
		year, month, err := workday.ParseMonth(statsMonth)
		if err != nil {
			return err
		}
		c := config.Get()
		holidays := workday.HolidaySet(c.Buildings.Holidays, statsHolidays)
		dates := workday.Workdays(year, month, holidays)

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintf(w, "BUILDING\tUPLOADED\tWORKDAYS\tMISSING DATES\n")
		for _, b := range c.Buildings.StatsRoster {
			uploaded := 0
			var missing []string
			for _, d := range dates {
				if storages.Gallery.HasFolder(b, d) {
					uploaded++
				} else {
					missing = append(missing, d)
				}
			}
			fmt.Fprintf(
				w, "%s\t%d\t%d\t%s\n",
				b, uploaded, len(dates), strings.Join(missing, ","),
			)
		}
		return w.Flush()
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage staff accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staff accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		list, err := storages.Users.List()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tDISPLAY NAME\tDISABLED")
		for _, u := range list {
			fmt.Fprintf(w, "%s\t%s\t%t\n", u.Username, u.DisplayName, u.Disabled)
		}
		return w.Flush()
	},
}

var usersAddDisplayName string

var usersAddCmd = &cobra.Command{
	Use:   "add <username> <password>",
	Short: "Create a staff account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		u, err := storages.Users.Create(args[0], args[1], usersAddDisplayName)
		if err != nil {
			return err
		}
		fmt.Printf("created user %s\n", u.Username)
		return nil
	},
}

var usersDelCmd = &cobra.Command{
	Use:   "del <username>",
	Short: "Delete a staff account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		return storages.Users.Delete(args[0])
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "the config file to use")

	eventsListCmd.Flags().StringVar(&eventsListFilter.Building, "building", "", "filter by building")
	eventsListCmd.Flags().StringVar(&eventsListFilter.Type, "type", "", "filter by type")
	eventsListCmd.Flags().StringVar(&eventsListFilter.Subtype, "subtype", "", "filter by subtype")
	eventsListCmd.Flags().StringVar(&eventsListFilter.DisplayID, "display-id", "", "filter by display id substring")
	eventsCmd.AddCommand(eventsListCmd, eventsShowCmd, eventsStatusCmd)

	statsCmd.Flags().StringVar(&statsMonth, "month", "", "month to report on (YYYY-MM, default current)")
	statsCmd.Flags().StringSliceVar(&statsHolidays, "holidays", nil, "extra holidays to exclude")

	usersAddCmd.Flags().StringVar(&usersAddDisplayName, "name", "", "display name")
	usersCmd.AddCommand(usersListCmd, usersAddCmd, usersDelCmd)

	rootCmd.AddCommand(eventsCmd, statsCmd, usersCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
