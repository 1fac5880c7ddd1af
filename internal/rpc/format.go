package rpc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brandao-20/mcp-server-ipma/internal/models"
)

// formatForecastText renders the first (current-day) forecast entry as one
// human-readable Portuguese text block. The caller guarantees the bundle has
// at least one entry.
func formatForecastText(bundle models.ForecastBundle) string {
	day := bundle.Previsoes[0]

	var b strings.Builder
	fmt.Fprintf(&b, "Previsão para %s em %s:\n", day.Cidade, rawText(day.Data))
	fmt.Fprintf(&b, "%s\n", day.Previsao)
	fmt.Fprintf(&b, "Temperatura mínima: %s °C\n", rawText(day.TemperaturaMin))
	fmt.Fprintf(&b, "Temperatura máxima: %s °C\n", rawText(day.TemperaturaMax))
	fmt.Fprintf(&b, "Probabilidade de precipitação: %s%%\n", rawText(day.PrecipitacaoProb))
	fmt.Fprintf(&b, "Vento: %s (classe %s)", rawText(day.VentoDir), rawText(day.VentoVel))
	return b.String()
}

// rawText renders a passthrough JSON value for the text block, unquoting
// strings and mapping absent values to "N/A".
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "N/A"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
