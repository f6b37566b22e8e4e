package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/citypal/citypal/internal/agent"
)

// normalizeKey lowercases a city argument and strips a trailing country code.
func normalizeKey(city string) string {
	name, _, _ := strings.Cut(city, ",")
	return strings.ToLower(strings.TrimSpace(name))
}

const defaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// weatherReport is the normalized output handed back to the model.
type weatherReport struct {
	City         string  `json:"city"`
	TemperatureC float64 `json:"temperature_c"`
	Description  string  `json:"description"`
	HumidityPct  float64 `json:"humidity_percent"`
}

// cannedWeather serves development without an OpenWeatherMap key.
var cannedWeather = map[string]weatherReport{
	"tokyo": {City: "Tokyo", TemperatureC: 25, Description: "clear sky", HumidityPct: 60},
	"osaka": {City: "Osaka", TemperatureC: 28, Description: "scattered clouds", HumidityPct: 70},
	"kyoto": {City: "Kyoto", TemperatureC: 23, Description: "light rain", HumidityPct: 80},
}

// NewWeatherTool returns the current-weather tool. With an empty API key it
// answers from canned data instead of calling OpenWeatherMap.
func NewWeatherTool(apiKey string) agent.Tool {
	return newWeatherTool(defaultHTTPClient(), defaultWeatherBaseURL, apiKey)
}

func newWeatherTool(client *http.Client, baseURL, apiKey string) agent.Tool {
	return agent.Tool{
		Name:        "get_weather",
		Description: "Get the current weather for a city. Use the English city name, optionally with a country code, e.g. \"Tokyo,JP\".",
		SchemaJSON:  `{"type":"object","properties":{"city":{"type":"string","description":"English city name, optionally with ISO country code (e.g. Tokyo,JP)"}},"required":["city"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			city, ok := args["city"].(string)
			if !ok || city == "" {
				return "", fmt.Errorf("city must be a non-empty string")
			}
			return fetchWeather(ctx, client, baseURL, apiKey, city)
		},
	}
}

func fetchWeather(ctx context.Context, client *http.Client, baseURL, apiKey, city string) (string, error) {
	if apiKey == "" {
		report, ok := cannedWeather[normalizeKey(city)]
		if !ok {
			report = weatherReport{City: city, TemperatureC: 20, Description: "clear sky", HumidityPct: 65}
		}
		out, err := json.Marshal(report)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}

	u := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		baseURL, url.QueryEscape(city), url.QueryEscape(apiKey))

	status, body, err := get(ctx, client, u)
	if err != nil {
		if fatalTransport(err) {
			return "", err
		}
		return fmt.Sprintf("Error: weather request failed: %v", err), nil
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Sprintf("City %q not found by the weather service. Use the English city name, optionally with a country code such as \"Tokyo,JP\".", city), nil
	case status == http.StatusUnauthorized:
		return "Error: the weather service rejected the API key (HTTP 401 unauthorized).", nil
	case status != http.StatusOK:
		return fmt.Sprintf("Failed to fetch weather (HTTP Error: %d)", status), nil
	}

	var payload struct {
		Name string `json:"name"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Sprintf("Error: weather service returned malformed data: %v", err), nil
	}

	report := weatherReport{
		City:         payload.Name,
		TemperatureC: payload.Main.Temp,
		HumidityPct:  payload.Main.Humidity,
	}
	if report.City == "" {
		report.City = city
	}
	if len(payload.Weather) > 0 {
		report.Description = payload.Weather[0].Description
	}

	out, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
