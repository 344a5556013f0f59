package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/glossameta/internal/config"
	domds "github.com/kailas-cloud/glossameta/internal/domain/dataset"
	"github.com/kailas-cloud/glossameta/internal/domain/geo"
	datasetrepo "github.com/kailas-cloud/glossameta/internal/repository/dataset"
)

// loadInputs reads the metadata table and the coordinates concurrently.
func loadInputs(ctx context.Context, cfg config.DatasetConfig, idColumn string) (domds.Dataset, geo.Coordinates, error) {
	var (
		ds     domds.Dataset
		coords geo.Coordinates
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds, err = datasetrepo.LoadTSV(cfg.Path, idColumn)
		return err
	})
	if cfg.CoordsPath != "" {
		g.Go(func() error {
			var err error
			coords, err = datasetrepo.LoadCoordinates(cfg.CoordsPath)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return domds.Dataset{}, nil, fmt.Errorf("load dataset: %w", err)
	}
	return ds, coords, nil
}
