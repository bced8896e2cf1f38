package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/sftlabs/sft-registry/internal/config"
	"github.com/sftlabs/sft-registry/internal/registry"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print ledger usage metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			store, closeStore, err := buildStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			service, err := registry.NewService(registry.Config{
				Store:        store,
				PlainNumbers: cfg.Registry.PlainNumbers,
			})
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(service.Stats())
		},
	}
}
