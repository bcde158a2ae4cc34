package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erasmus-writer/resource-engine/api"
	"github.com/erasmus-writer/resource-engine/config"
	"github.com/erasmus-writer/resource-engine/factory"
	"github.com/erasmus-writer/resource-engine/logging"
	"github.com/erasmus-writer/resource-engine/store/sqlite"
)

var (
	seedGridFile string
	seedScenario string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import a standard cost grid and optionally a demo scenario",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedGridFile, "grid", "", "grid JSON file (default: built-in Erasmus+ grid)")
	seedCmd.Flags().StringVar(&seedScenario, "scenario", "", "demo scenario to load; resets the database")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	if seedScenario != "" {
		handler := api.NewHandler(store, nil, log, api.Options{StandardRole: cfg.Costing.StandardRole})
		if err := handler.LoadScenarioByID(ctx, seedScenario); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded scenario %s\n", seedScenario)
		return nil
	}

	doc := []byte(factory.ErasmusGridJSON())
	if seedGridFile != "" {
		doc, err = os.ReadFile(seedGridFile)
		if err != nil {
			return fmt.Errorf("reading grid file: %w", err)
		}
	}

	rows, err := factory.NewGridFactory(cfg.Costing.StandardRole).ParseGrid(doc)
	if err != nil {
		return err
	}
	if err := store.SaveStandardCosts(ctx, rows); err != nil {
		return err
	}

	log.Infow("standard cost grid seeded", "rows", len(rows), "db", cfg.Database.Path)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d standard cost rows\n", len(rows))
	return nil
}
