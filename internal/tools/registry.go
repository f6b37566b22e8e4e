// Package tools provides the city-information tools the agent can call:
// current weather, local time, city facts and an offline local guide.
package tools

import (
	"github.com/citypal/citypal/internal/agent"
)

// ToolSet controls which tools are registered.
type ToolSet struct {
	Weather    bool
	LocalTime  bool
	CityFacts  bool
	LocalGuide bool
}

// DefaultToolSet enables everything.
func DefaultToolSet() ToolSet {
	return ToolSet{Weather: true, LocalTime: true, CityFacts: true, LocalGuide: true}
}

// Settings carries the credentials and switches the tools need.
type Settings struct {
	Set               ToolSet
	OpenWeatherAPIKey string // empty key switches the weather tool to canned data
}

// NewToolRegistry builds the agent.ToolRegistry for the enabled tools.
func NewToolRegistry(s Settings) (agent.ToolRegistry, error) {
	reg := make(agent.ToolRegistry)

	if s.Set.Weather {
		t := NewWeatherTool(s.OpenWeatherAPIKey)
		reg[t.Name] = t
	}
	if s.Set.LocalTime {
		t := NewLocalTimeTool()
		reg[t.Name] = t
	}
	if s.Set.CityFacts {
		t := NewCityFactsTool()
		reg[t.Name] = t
	}
	if s.Set.LocalGuide {
		t, err := NewLocalGuideTool()
		if err != nil {
			return nil, err
		}
		reg[t.Name] = t
	}

	return reg, nil
}
