package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/concierge/internal/db"
	"github.com/zulandar/concierge/internal/dialogue"
	"github.com/zulandar/concierge/internal/store"
)

func newMenuCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Manage the restaurant catalog",
	}

	cmd.AddCommand(newMenuLoadCmd())
	cmd.AddCommand(newMenuListCmd())
	return cmd
}

func newMenuLoadCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "load <file.csv>",
		Short: "Load catalog items from a CSV file",
		Long: `Reads a CSV with the header "Item Name,Description,Price" and inserts each
item, updating description and price of items that already exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenuLoad(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Concierge config file")
	return cmd
}

func runMenuLoad(cmd *cobra.Command, configPath, path string) error {
	out := cmd.OutOrStdout()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open menu file: %w", err)
	}
	defer f.Close()

	items, err := db.ParseMenuCSV(f)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(cfg.Database); err != nil {
		return err
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	if err := db.UpsertMenu(gormDB, items); err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded %d menu items from %s\n", len(items), path)
	return nil
}

func newMenuListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenuList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Concierge config file")
	return cmd
}

func runMenuList(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	st, err := store.New(gormDB)
	if err != nil {
		return err
	}
	items, err := st.MenuItems(cmd.Context())
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "No menu items. Run `concierge menu load <file.csv>` or `concierge db init`.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tPRICE\tAVAILABLE\tDESCRIPTION")
	for _, it := range items {
		avail := "yes"
		if !it.Available {
			avail = "no"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s%s\t%s\t%s\n",
			it.ID, it.ItemName, cfg.Hotel.Currency, dialogue.FormatPrice(it.Price), avail, it.Description)
	}
	return tw.Flush()
}
