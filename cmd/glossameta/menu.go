package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/glossameta/internal/domain/menu"
	"github.com/kailas-cloud/glossameta/internal/domain/setindex"
	datasetrepo "github.com/kailas-cloud/glossameta/internal/repository/dataset"
)

// menuItem is the JSON shape printed by the menu command.
type menuItem struct {
	Key         string      `json:"key"`
	DisplayName string      `json:"display_name"`
	Kind        string      `json:"kind"`
	Values      []string    `json:"values,omitempty"`
	Bounds      *menuBounds `json:"bounds,omitempty"`
	HasNull     bool        `json:"has_null"`
}

type menuBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func newMenuCmd(opts *rootOptions) *cobra.Command {
	var datasetPath string

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Print the filter menu of a dataset as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if datasetPath != "" {
				cfg.Dataset.Path = datasetPath
			}
			schema, err := cfg.Schema.Build()
			if err != nil {
				return err
			}

			ds, err := datasetrepo.LoadTSV(cfg.Dataset.Path, cfg.Schema.IDColumn)
			if err != nil {
				return err
			}
			ix, err := setindex.Build(ds, schema, setindex.WithNullToken(cfg.Dataset.NullToken))
			if err != nil {
				return fmt.Errorf("build index: %w", err)
			}

			entries := menu.Build(ix)
			items := make([]menuItem, len(entries))
			for i, e := range entries {
				items[i] = menuItem{
					Key:         e.Key,
					DisplayName: e.DisplayName,
					Kind:        string(e.Kind),
					HasNull:     e.HasNull,
				}
				if e.Bounds != nil {
					items[i].Bounds = &menuBounds{Min: e.Bounds.Min, Max: e.Bounds.Max}
				}
				for _, v := range e.Values {
					items[i].Values = append(items[i].Values, v.String())
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "metadata TSV (overrides dataset.path)")
	return cmd
}
