package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonField binds an output key to a field pointer. Keys contain commas, which struct tags cannot express.
type jsonField struct {
	key   string
	value interface{}
}

func marshalFields(fields []jsonField) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func unmarshalFields(data []byte, fields []jsonField) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for _, f := range fields {
		value, ok := raw[f.key]
		if !ok {
			continue
		}

		if err := json.Unmarshal(value, f.value); err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
	}

	return nil
}

func (w *CurrentWeather) fields() []jsonField {
	return []jsonField{
		{"temperature, °C", &w.TemperatureC},
		{"feels like, °C", &w.FeelsLikeC},
		{"weather condition", &w.Condition},
		{"condition code", &w.ConditionCode},
		{"icon", &w.Icon},
		{"last updated", &w.LastUpdated},
		{"wind, kph", &w.WindKph},
		{"humidity, %", &w.Humidity},
		{"cloudiness, %", &w.Cloudiness},
	}
}

func (w CurrentWeather) MarshalJSON() ([]byte, error) {
	return marshalFields(w.fields())
}

func (w *CurrentWeather) UnmarshalJSON(data []byte) error {
	return unmarshalFields(data, w.fields())
}

func (h *ForecastHour) fields() []jsonField {
	return []jsonField{
		{"time", &h.Time},
		{"temperature, °C", &h.TemperatureC},
		{"weather condition", &h.Condition},
		{"icon", &h.Icon},
	}
}

func (h ForecastHour) MarshalJSON() ([]byte, error) {
	return marshalFields(h.fields())
}

func (h *ForecastHour) UnmarshalJSON(data []byte) error {
	return unmarshalFields(data, h.fields())
}

func (d *ForecastDay) fields() []jsonField {
	return []jsonField{
		{"date", &d.Date},
		{"max temperature, °C", &d.MaxTempC},
		{"min temperature, °C", &d.MinTempC},
		{"weather condition", &d.Condition},
		{"icon", &d.Icon},
		{"hours", &d.Hours},
	}
}

func (d ForecastDay) MarshalJSON() ([]byte, error) {
	return marshalFields(d.fields())
}

func (d *ForecastDay) UnmarshalJSON(data []byte) error {
	return unmarshalFields(data, d.fields())
}
