package models

import "encoding/json"

type District struct {
	Name   string            `json:"name"`
	Cities map[string]string `json:"cities"`
}

type ForecastDay struct {
	Data             json.RawMessage `json:"data"`
	Cidade           string          `json:"cidade"`
	Previsao         string          `json:"previsao"`
	TemperaturaMin   json.RawMessage `json:"temperatura_min"`
	TemperaturaMax   json.RawMessage `json:"temperatura_max"`
	PrecipitacaoProb json.RawMessage `json:"precipitacao_prob"`
	VentoDir         json.RawMessage `json:"vento_dir"`
	VentoVel         json.RawMessage `json:"vento_vel"`
}

type ForecastBundle struct {
	Previsoes []ForecastDay   `json:"previsoes"`
	Updated   json.RawMessage `json:"updated"` // upstream dataUpdate, null when absent
}
