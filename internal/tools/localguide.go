package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/citypal/citypal/internal/agent"
)

// guideNote is one curated travel note. Notes are indexed in memory at
// startup; the tool needs no network access.
type guideNote struct {
	City  string `json:"city"`
	Topic string `json:"topic"`
	Text  string `json:"text"`
}

var guideNotes = []guideNote{
	{City: "Tokyo", Topic: "food", Text: "Tsukiji Outer Market opens early for sushi breakfast. Depachika food halls under department stores are good for gifts. Ramen shops often sell tickets from a vending machine at the door."},
	{City: "Tokyo", Topic: "sights", Text: "Senso-ji in Asakusa is busiest before noon. The Meiji Shrine forest is a quiet walk from Harajuku. Shibuya Sky has the best sunset view of the crossing."},
	{City: "Tokyo", Topic: "etiquette", Text: "Stand on the left of escalators in Tokyo. Eating while walking is frowned upon in most neighborhoods. Cash is still welcome at small restaurants."},
	{City: "Kyoto", Topic: "sights", Text: "Fushimi Inari's torii gates are nearly empty at dawn. Arashiyama's bamboo grove pairs well with the Tenryu-ji garden next door. Many temples stop admissions around 16:30."},
	{City: "Kyoto", Topic: "etiquette", Text: "In Gion, photographing geiko and maiko on private alleys is prohibited. Remove shoes where a raised floor or rack signals it."},
	{City: "Osaka", Topic: "food", Text: "Dotonbori is the strip for takoyaki and okonomiyaki. Kuromon Ichiba market is best before mid-afternoon. Locals queue at standing bars in Tenma."},
	{City: "Paris", Topic: "food", Text: "Boulangeries award-listed for the baguette prize are worth a detour. Most kitchens close between lunch and dinner service. A carafe d'eau is free with meals."},
	{City: "Paris", Topic: "sights", Text: "The Louvre is calmest on Wednesday and Friday evenings. Pre-book the Eiffel Tower or climb the stairs to skip the longest queue. Sainte-Chapelle's windows need a sunny day."},
	{City: "London", Topic: "sights", Text: "Major museums including the British Museum and Tate Modern are free. Book the Tower of London online for cheaper entry. Sunday markets cluster around Brick Lane and Columbia Road."},
	{City: "London", Topic: "transport", Text: "Contactless cards cap daily fares across the Tube and buses. Black cabs accept cards; night buses cover most of the center after the Tube closes."},
	{City: "New York", Topic: "sights", Text: "Walk the High Line south from Hudson Yards toward Chelsea Market. The Staten Island Ferry passes the Statue of Liberty for free. Times Square is best seen briefly and late."},
	{City: "New York", Topic: "food", Text: "Dollar-slice pizza quality varies by block; look for fresh pies. Bagel shops peak before 10am on weekends. Tipping 18-20 percent is expected at sit-down restaurants."},
}

// NewLocalGuideTool builds the offline travel-notes tool over an in-memory
// search index.
func NewLocalGuideTool() (agent.Tool, error) {
	idx, err := bleve.NewMemOnly(buildGuideMapping())
	if err != nil {
		return agent.Tool{}, fmt.Errorf("create local guide index: %w", err)
	}

	for i, note := range guideNotes {
		id := fmt.Sprintf("%s-%s-%d", strings.ToLower(note.City), note.Topic, i)
		if err := idx.Index(id, note); err != nil {
			return agent.Tool{}, fmt.Errorf("index local guide note %s: %w", id, err)
		}
	}

	return agent.Tool{
		Name:        "local_guide",
		Description: "Search curated travel notes (food, sights, etiquette, transport) for a city. Works offline and covers a small set of major cities.",
		SchemaJSON:  `{"type":"object","properties":{"city":{"type":"string","description":"English city name"},"topic":{"type":"string","description":"Optional topic such as food, sights, etiquette or transport"}},"required":["city"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			city, ok := args["city"].(string)
			if !ok || city == "" {
				return "", fmt.Errorf("city must be a non-empty string")
			}
			topic, _ := args["topic"].(string)
			return searchGuide(ctx, idx, city, topic)
		},
	}, nil
}

func buildGuideMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	noteMapping := bleve.NewDocumentMapping()

	cityField := bleve.NewTextFieldMapping()
	cityField.Analyzer = standard.Name
	cityField.Store = true
	noteMapping.AddFieldMappingsAt("city", cityField)

	topicField := bleve.NewTextFieldMapping()
	topicField.Analyzer = keyword.Name
	topicField.Store = true
	noteMapping.AddFieldMappingsAt("topic", topicField)

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = true
	noteMapping.AddFieldMappingsAt("text", textField)

	indexMapping.DefaultMapping = noteMapping
	return indexMapping
}

func searchGuide(ctx context.Context, idx bleve.Index, city, topic string) (string, error) {
	cityQuery := bleve.NewMatchQuery(normalizeKey(city))
	cityQuery.SetField("city")

	query := bleve.NewConjunctionQuery(cityQuery)
	if topic != "" {
		topicQuery := bleve.NewTermQuery(strings.ToLower(topic))
		topicQuery.SetField("topic")
		query.AddQuery(topicQuery)
	}

	req := bleve.NewSearchRequest(query)
	req.Size = 3
	req.Fields = []string{"city", "topic", "text"}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("local guide search: %w", err)
	}

	if len(res.Hits) == 0 {
		return fmt.Sprintf("Error: no local guide notes for %q. Coverage is limited to a handful of major cities such as Tokyo, Kyoto, Paris, London and New York.", city), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Curated notes for %s:\n", city)
	for _, hit := range res.Hits {
		topic, _ := hit.Fields["topic"].(string)
		text, _ := hit.Fields["text"].(string)
		fmt.Fprintf(&b, "\n[%s]\n%s\n", topic, text)
	}
	return b.String(), nil
}
