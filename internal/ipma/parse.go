package ipma

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexID is an upstream identifier decoded from either a JSON string or a
// JSON number; IPMA is not consistent about which one it serves. The literal
// form is preserved, so 1030500 and "1030500" both become "1030500". A JSON
// null decodes to the empty string.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// DistrictRecord is one entry of the districts/islands dataset.
type DistrictRecord struct {
	DistrictID FlexID `json:"idDistrito"`
	GlobalID   FlexID `json:"globalIdLocal"`
	Local      string `json:"local"`
}

// WeatherTypeRecord is one entry of the weather-type classification dataset.
// Code is a pointer because 0 is a real classification code.
type WeatherTypeRecord struct {
	Code        *int   `json:"idWeatherType"`
	Description string `json:"descWeatherTypePT"`
}

// ForecastEntry is one per-day entry of a city forecast document. The
// passthrough fields keep their raw JSON form so upstream's number-vs-string
// typing survives into responses untouched.
type ForecastEntry struct {
	ForecastDate  json.RawMessage `json:"forecastDate"`
	WeatherType   *int            `json:"idWeatherType"`
	TMin          json.RawMessage `json:"tMin"`
	TMax          json.RawMessage `json:"tMax"`
	PrecipitaProb json.RawMessage `json:"precipitaProb"`
	PredWindDir   json.RawMessage `json:"predWindDir"`
	ClassWind     json.RawMessage `json:"classWindSpeed"`
}

// ParseDistricts decodes the districts dataset. Records that fail to decode
// are skipped rather than failing the whole document; a document without a
// data array yields zero records.
func ParseDistricts(doc json.RawMessage) ([]DistrictRecord, error) {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, fmt.Errorf("%w: districts: %v", ErrMalformedPayload, err)
	}

	records := make([]DistrictRecord, 0, len(envelope.Data))
	for _, raw := range envelope.Data {
		var rec DistrictRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseWeatherTypes decodes the weather-type classification dataset, skipping
// records that fail to decode.
func ParseWeatherTypes(doc json.RawMessage) ([]WeatherTypeRecord, error) {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, fmt.Errorf("%w: weather types: %v", ErrMalformedPayload, err)
	}

	records := make([]WeatherTypeRecord, 0, len(envelope.Data))
	for _, raw := range envelope.Data {
		var rec WeatherTypeRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseForecast decodes a per-city forecast document into its entries and the
// upstream dataUpdate timestamp (nil when absent). Entries that fail to
// decode are skipped.
func ParseForecast(doc json.RawMessage) ([]ForecastEntry, json.RawMessage, error) {
	var envelope struct {
		Data       []json.RawMessage `json:"data"`
		DataUpdate json.RawMessage   `json:"dataUpdate"`
	}
	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, nil, fmt.Errorf("%w: forecast: %v", ErrMalformedPayload, err)
	}

	entries := make([]ForecastEntry, 0, len(envelope.Data))
	for _, raw := range envelope.Data {
		var e ForecastEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, envelope.DataUpdate, nil
}

// ExtractDataArray returns a document's data array verbatim, for the
// passthrough datasets. A missing or null data key yields an empty array.
func ExtractDataArray(doc json.RawMessage) (json.RawMessage, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || string(data) == "null" {
		return json.RawMessage("[]"), nil
	}
	if data[0] != '[' {
		return nil, fmt.Errorf("%w: data key is not an array", ErrMalformedPayload)
	}
	return data, nil
}
