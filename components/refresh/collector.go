package refresh

import (
	"context"
	"errors"
	"fmt"

	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/sync/errgroup"
)

var errEmptyDataSourceID = errors.New("refresh: data source id is required")

// Collect fetches the data sources of every worksheet concurrently and merges
// them by identifier. The first source seen for an identifier wins. Any fetch
// failure aborts the collection and no partial set is returned.
func Collect(ctx context.Context, dashboard Dashboard) (DataSourceSet, error) {
	if dashboard == nil {
		return nil, errors.New("refresh: dashboard is required")
	}
	worksheets := dashboard.Worksheets()
	if len(worksheets) == 0 {
		return DataSourceSet{}, nil
	}

	merged := cmap.New[DataSource]()
	group, groupCtx := errgroup.WithContext(ctx)
	for _, worksheet := range worksheets {
		if worksheet == nil {
			continue
		}
		group.Go(func() error {
			sources, err := worksheet.DataSources(groupCtx)
			if err != nil {
				return fmt.Errorf("refresh: fetch data sources for worksheet %q: %w", worksheet.Name(), err)
			}
			for _, source := range sources {
				if source == nil {
					continue
				}
				id := source.ID()
				if id == "" {
					return fmt.Errorf("%w (worksheet %q)", errEmptyDataSourceID, worksheet.Name())
				}
				merged.SetIfAbsent(id, source)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return DataSourceSet(merged.Items()), nil
}
