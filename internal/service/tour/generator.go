// Package tour drafts walking tours with the Gemini API. The model is
// constrained to a response JSON schema and its output is parsed and
// re-validated before anything leaves the service.
package tour

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

type Request struct {
	City               string
	Neighborhood       string
	Duration           int
	TourTheme          string
	StartLocation      string
	Language           string
	UserPreferences    string
	Pace               string
	GroupType          string
	Budget             string
	AccessibilityNeeds string
}

// Draft mirrors the walk aggregate the client can turn into a real walk:
// a name, a description and ordered spots with coordinates.
type Draft struct {
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	DurationEstimate *float64    `json:"duration_estimate,omitempty"`
	DistanceEstimate *float64    `json:"distance_estimate,omitempty"`
	Spots            []DraftSpot `json:"spots"`
}

type DraftSpot struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	ReachRadius   *float64 `json:"reach_radius,omitempty"`
	PositionOrder int      `json:"positionOrder"`
}

type Generator struct {
	client *genai.Client
}

func NewGenerator(ctx context.Context, apiKey string) (*Generator, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("tour: creating genai client: %w", err)
	}
	return &Generator{client: client}, nil
}

func (g *Generator) Generate(ctx context.Context, req Request) (*Draft, error) {
	result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(buildPrompt(req)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   draftSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("tour: generate content: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal([]byte(result.Text()), &draft); err != nil {
		return nil, fmt.Errorf("tour: model returned invalid JSON: %w", err)
	}

	if draft.Name == "" || len(draft.Spots) == 0 {
		return nil, fmt.Errorf("tour: model returned an incomplete draft")
	}
	for _, sp := range draft.Spots {
		if sp.Latitude < -90 || sp.Latitude > 90 || sp.Longitude < -180 || sp.Longitude > 180 {
			return nil, fmt.Errorf("tour: model returned invalid coordinates for %q", sp.Title)
		}
	}

	return &draft, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a walking tour for %s, %s.\n\n", req.City, req.Neighborhood)
	b.WriteString("Parameters:\n")
	fmt.Fprintf(&b, "- Theme: %s\n", req.TourTheme)
	fmt.Fprintf(&b, "- Duration: %d minutes\n", req.Duration)
	if req.StartLocation != "" {
		fmt.Fprintf(&b, "- Start: %s\n", req.StartLocation)
	}
	if req.Pace != "" {
		fmt.Fprintf(&b, "- Pace: %s\n", req.Pace)
	}
	if req.GroupType != "" {
		fmt.Fprintf(&b, "- Group: %s\n", req.GroupType)
	}
	if req.Budget != "" {
		fmt.Fprintf(&b, "- Budget: %s\n", req.Budget)
	}
	if req.UserPreferences != "" {
		fmt.Fprintf(&b, "- Preferences: %s\n", req.UserPreferences)
	}
	if req.AccessibilityNeeds != "" {
		fmt.Fprintf(&b, "- Accessibility: %s\n", req.AccessibilityNeeds)
	}
	if req.Language != "" {
		fmt.Fprintf(&b, "- Language: %s\n", req.Language)
	}
	b.WriteString("\nRequirements:\n")
	b.WriteString("- Each spot is one stop on the tour, described the way a tour guide would present it to a tourist, with an interesting fact.\n")
	fmt.Fprintf(&b, "- Each spot needs real coordinates for %s, %s.\n", req.City, req.Neighborhood)
	b.WriteString("- positionOrder must be sequential (1, 2, 3...).\n")
	return b.String()
}

func draftSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":              {Type: genai.TypeString},
			"description":       {Type: genai.TypeString},
			"duration_estimate": {Type: genai.TypeNumber},
			"distance_estimate": {Type: genai.TypeNumber},
			"spots": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":         {Type: genai.TypeString},
						"description":   {Type: genai.TypeString},
						"latitude":      {Type: genai.TypeNumber},
						"longitude":     {Type: genai.TypeNumber},
						"reach_radius":  {Type: genai.TypeNumber},
						"positionOrder": {Type: genai.TypeInteger},
					},
					Required: []string{"title", "description", "latitude", "longitude", "positionOrder"},
				},
			},
		},
		Required: []string{"name", "description", "spots"},
	}
}
