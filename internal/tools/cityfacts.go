package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/citypal/citypal/internal/agent"
)

const defaultWikipediaBaseURL = "https://en.wikipedia.org/api/rest_v1"

// NewCityFactsTool returns the city-facts tool backed by the Wikipedia
// REST page-summary endpoint.
func NewCityFactsTool() agent.Tool {
	return newCityFactsTool(defaultHTTPClient(), defaultWikipediaBaseURL)
}

func newCityFactsTool(client *http.Client, baseURL string) agent.Tool {
	return agent.Tool{
		Name:        "get_city_facts",
		Description: "Get basic information about a city from Wikipedia. Use the English city name as a single word (e.g. 'Paris', 'Tokyo', 'London').",
		SchemaJSON:  `{"type":"object","properties":{"city":{"type":"string","description":"English city name as a single word (e.g. Paris)"}},"required":["city"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			city, ok := args["city"].(string)
			if !ok || city == "" {
				return "", fmt.Errorf("city must be a non-empty string")
			}
			return fetchCityFacts(ctx, client, baseURL, city)
		},
	}
}

func fetchCityFacts(ctx context.Context, client *http.Client, baseURL, city string) (string, error) {
	u := baseURL + "/page/summary/" + url.PathEscape(city)

	status, body, err := get(ctx, client, u)
	if err != nil {
		if fatalTransport(err) {
			return "", err
		}
		return fmt.Sprintf("Error: city facts request failed: %v", err), nil
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Sprintf("City '%s' not found in Wikipedia. Please use English city name in single word (e.g., 'Paris', 'Tokyo', 'London').", city), nil
	case status != http.StatusOK:
		return fmt.Sprintf("Failed to fetch city information (HTTP Error: %d)", status), nil
	}

	return string(body), nil
}
