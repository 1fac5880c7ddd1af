package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/brandao-20/mcp-server-ipma/internal/ipma"
	"github.com/brandao-20/mcp-server-ipma/internal/models"
	"github.com/brandao-20/mcp-server-ipma/internal/observability"
)

// UnknownLocality is the display name for district records that carry no
// local field.
const UnknownLocality = "Desconhecido"

// DatasetSource is implemented by the service layer to fetch the reference
// datasets through the TTL cache. Declared here to avoid a circular
// dependency on the service package.
type DatasetSource interface {
	CachedDistricts(ctx context.Context) (json.RawMessage, error)
	CachedWeatherTypes(ctx context.Context) (json.RawMessage, error)
}

// Loader rebuilds the reference tables from upstream datasets. On failure the
// previous tables are retained, stale but intact.
type Loader struct {
	source  DatasetSource
	catalog *Catalog
	logger  *zap.Logger
}

func NewLoader(source DatasetSource, catalog *Catalog, logger *zap.Logger) *Loader {
	return &Loader{source: source, catalog: catalog, logger: logger}
}

// Load rebuilds both tables. Each table either swaps in complete or keeps its
// prior state; a failure in one does not block the other.
func (l *Loader) Load(ctx context.Context) error {
	var errs []error
	if err := l.loadDistricts(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := l.loadWeatherTypes(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		observability.CatalogRefreshTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("catalog load: %v", errs)
	}
	observability.CatalogRefreshTotal.WithLabelValues("success").Inc()
	return nil
}

func (l *Loader) loadDistricts(ctx context.Context) error {
	doc, err := l.source.CachedDistricts(ctx)
	if err != nil {
		l.logError("load districts", err)
		return fmt.Errorf("load districts: %w", err)
	}

	records, err := ipma.ParseDistricts(doc)
	if err != nil {
		l.logError("parse districts", err)
		return fmt.Errorf("parse districts: %w", err)
	}

	districts := map[string]models.District{}
	cities := map[string]string{}
	nameIndex := map[string]string{}
	for _, rec := range records {
		did := string(rec.DistrictID)
		gid := string(rec.GlobalID)
		if did == "" || gid == "" {
			continue
		}
		name := rec.Local
		if name == "" {
			name = UnknownLocality
		}

		// The district keeps the name of its first record.
		d, ok := districts[did]
		if !ok {
			d = models.District{Name: name, Cities: map[string]string{}}
		}
		d.Cities[gid] = name
		districts[did] = d

		cities[gid] = name
		nameIndex[strings.ToLower(name)] = gid
	}

	l.catalog.ReplaceDistricts(districts, cities, nameIndex)
	observability.CatalogEntries.WithLabelValues("districts").Set(float64(len(districts)))
	observability.CatalogEntries.WithLabelValues("cities").Set(float64(len(cities)))
	if l.logger != nil {
		l.logger.Info("catalog districts loaded",
			zap.Int("districts", len(districts)),
			zap.Int("cities", len(cities)))
	}
	return nil
}

func (l *Loader) loadWeatherTypes(ctx context.Context) error {
	doc, err := l.source.CachedWeatherTypes(ctx)
	if err != nil {
		l.logError("load weather types", err)
		return fmt.Errorf("load weather types: %w", err)
	}

	records, err := ipma.ParseWeatherTypes(doc)
	if err != nil {
		l.logError("parse weather types", err)
		return fmt.Errorf("parse weather types: %w", err)
	}

	types := map[int]string{}
	for _, rec := range records {
		if rec.Code == nil {
			continue
		}
		desc := rec.Description
		if desc == "" {
			desc = UnknownDescription
		}
		types[*rec.Code] = desc
	}

	l.catalog.ReplaceWeatherTypes(types)
	observability.CatalogEntries.WithLabelValues("weather_types").Set(float64(len(types)))
	if l.logger != nil {
		l.logger.Info("catalog weather types loaded", zap.Int("weather_types", len(types)))
	}
	return nil
}

func (l *Loader) logError(op string, err error) {
	if l.logger != nil {
		l.logger.Error("catalog load failed, keeping previous tables",
			zap.String("op", op),
			zap.Error(err))
	}
}
