package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sftlabs/sft-registry/internal/config"
	"github.com/sftlabs/sft-registry/internal/export"
	"github.com/sftlabs/sft-registry/internal/registry"
)

func exportCmd() *cobra.Command {
	var (
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the ledger to a spreadsheet, CSV, or PDF file",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := export.ParseFormat(format)
			if err != nil {
				return fmt.Errorf("format %q: %w", format, err)
			}

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

			report, err := export.NewService().Render(parsed, service.All(), service.Stats())
			if err != nil {
				return err
			}

			target := outPath
			if target == "" {
				target = report.FileName
			}
			if err := os.WriteFile(target, report.Content, 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", target, len(report.Content))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "Export format (xlsx, csv, pdf)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file path (defaults to a timestamped name)")

	return cmd
}
