package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brandao-20/mcp-server-ipma/internal/catalog"
	"github.com/brandao-20/mcp-server-ipma/internal/ipma"
	"github.com/brandao-20/mcp-server-ipma/internal/models"
)

// Forecast returns the normalized per-day forecast for a known city global
// id. Unknown ids fail without touching the upstream; a fetched document
// with no entries maps to ErrNoForecast. Both the REST previsao endpoint and
// the RPC get_forecast tool are presentations of this one path.
func (s *Service) Forecast(ctx context.Context, globalID string) (models.ForecastBundle, error) {
	cityName, ok := s.catalog.CityName(globalID)
	if !ok {
		return models.ForecastBundle{}, fmt.Errorf("%w: %q", ErrUnknownCity, globalID)
	}

	doc, err := s.fetchCached(ctx, ipma.DatasetForecast, keyForecastPrefix+globalID, func(ctx context.Context) (json.RawMessage, error) {
		return s.fetcher.FetchForecast(ctx, globalID)
	})
	if err != nil {
		return models.ForecastBundle{}, fmt.Errorf("fetch forecast for %s: %w", globalID, err)
	}

	entries, dataUpdate, err := ipma.ParseForecast(doc)
	if err != nil {
		return models.ForecastBundle{}, err
	}
	if len(entries) == 0 {
		return models.ForecastBundle{}, fmt.Errorf("%w: %s", ErrNoForecast, globalID)
	}

	days := make([]models.ForecastDay, 0, len(entries))
	for _, entry := range entries {
		days = append(days, models.ForecastDay{
			Data:             entry.ForecastDate,
			Cidade:           cityName,
			Previsao:         s.describeWeather(entry.WeatherType),
			TemperaturaMin:   rawOrNA(entry.TMin),
			TemperaturaMax:   rawOrNA(entry.TMax),
			PrecipitacaoProb: rawOrNA(entry.PrecipitaProb),
			VentoDir:         rawOrNA(entry.PredWindDir),
			VentoVel:         rawOrNA(entry.ClassWind),
		})
	}

	return models.ForecastBundle{Previsoes: days, Updated: dataUpdate}, nil
}

func (s *Service) describeWeather(code *int) string {
	if code == nil {
		return catalog.UnknownDescription
	}
	return s.catalog.WeatherDescription(*code)
}

var notAvailable = json.RawMessage(`"N/A"`)

// rawOrNA substitutes the fixed "N/A" placeholder for fields absent from an
// upstream entry. An explicit JSON null is passed through, not substituted.
func rawOrNA(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return notAvailable
	}
	return raw
}
