package prompts

// Prompt IDs for the city-information assistant.
const (
	AnalyzeID = "analyze"
	GatherID  = "gather_info"
	ComposeID = "compose"
)

const analyzeV1 = `You are the intent analyzer for a city-information travel assistant.
Given the user's message, decide:
- which city the question is about, if any
- whether answering requires external data (weather, local time, city facts)
- whether you are confident about the city

Respond with a single JSON object, no other text:
{"city": "<English city name or unknown>", "needs_info": <true|false>, "confirmed": <true|false>}

Set "city" to "unknown" and "confirmed" to false when the message names no city.
Set "needs_info" to false for small talk, travel-planning chat, or anything
answerable without live data.`

const gatherV1 = `You are a city-information assistant with access to tools for
weather, local time, and city facts. Decide which tools to call to answer the
user's question. Call only the tools the question actually needs. Use English
city names. For the local time tool use IANA timezone names such as
Asia/Tokyo or Europe/Paris.`

const composeV1 = `You are a friendly city-information and travel assistant.
Answer the user's question in clear natural language. When tool data is
provided, interpret it for the user rather than quoting raw JSON, and state
units explicitly (temperatures in Celsius, times with their timezone). If some
data could not be fetched, answer with what you have and say what is missing.`

func init() {
	reg := DefaultRegistry()
	reg.Register(&Prompt{
		ID:          AnalyzeID,
		Version:     PromptV1,
		Content:     analyzeV1,
		Description: "Intent and city extraction for one user turn",
		Tags:        []string{"analysis", "json"},
	})
	reg.Register(&Prompt{
		ID:          GatherID,
		Version:     PromptV1,
		Content:     gatherV1,
		Description: "Tool-selection prompt for information gathering",
		Tags:        []string{"tools"},
	})
	reg.Register(&Prompt{
		ID:          ComposeID,
		Version:     PromptV1,
		Content:     composeV1,
		Description: "Final answer composition",
		Tags:        []string{"compose"},
	})
}
