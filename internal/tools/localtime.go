package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/citypal/citypal/internal/agent"
)

const defaultTimeBaseURL = "http://worldtimeapi.org/api"

const timezoneGuidance = `Use an IANA timezone name in Region/City form, for example:
- Asia/Tokyo
- America/New_York
- Europe/London
- Europe/Paris
- Australia/Sydney
- America/Los_Angeles
- Asia/Seoul
- Asia/Shanghai

Full list: http://worldtimeapi.org/api/timezone`

// NewLocalTimeTool returns the local-time tool backed by WorldTimeAPI.
func NewLocalTimeTool() agent.Tool {
	return newLocalTimeTool(defaultHTTPClient(), defaultTimeBaseURL)
}

func newLocalTimeTool(client *http.Client, baseURL string) agent.Tool {
	return agent.Tool{
		Name:        "get_local_time",
		Description: "Get the current local time for an IANA timezone such as Asia/Tokyo or Europe/Paris.",
		SchemaJSON:  `{"type":"object","properties":{"timezone":{"type":"string","description":"IANA timezone name in Region/City form (e.g. Asia/Tokyo)"}},"required":["timezone"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			tz, ok := args["timezone"].(string)
			if !ok || tz == "" {
				return "", fmt.Errorf("timezone must be a non-empty string")
			}
			return fetchLocalTime(ctx, client, baseURL, tz)
		},
	}
}

// escapeZone escapes each segment of an IANA zone while keeping the
// Region/City slash intact.
func escapeZone(tz string) string {
	parts := strings.Split(tz, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return strings.Join(parts, "/")
}

func fetchLocalTime(ctx context.Context, client *http.Client, baseURL, tz string) (string, error) {
	u := baseURL + "/timezone/" + escapeZone(tz)

	status, body, err := get(ctx, client, u)
	if err != nil {
		if fatalTransport(err) {
			return "", err
		}
		return fmt.Sprintf("Error: local time request failed: %v", err), nil
	}

	switch {
	case status == http.StatusNotFound:
		// Unrecognized zones are the model's most common mistake here;
		// the guidance lets the repair loop fix the argument.
		return fmt.Sprintf("Error: unrecognized timezone %q.\n\n%s", tz, timezoneGuidance), nil
	case status != http.StatusOK:
		return fmt.Sprintf("Failed to fetch local time (HTTP Error: %d)", status), nil
	}

	return string(body), nil
}
