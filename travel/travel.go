// Package travel is the travel-assistant cookbook: trip planning that gets
// more personal as preferences and past trips accumulate in memory.
package travel

import (
	"context"
	"fmt"
	"strings"

	"github.com/recallai/recall-go/chat"
	"github.com/recallai/recall-go/recall"
)

const systemPrompt = "You are an expert travel planner. Use the traveler's stored preferences and past trips to tailor your suggestions."

// Planner plans trips for one traveler identity.
type Planner struct {
	client *recall.Client
	model  chat.Model
	userID string
}

// NewPlanner creates a planner bound to a traveler.
func NewPlanner(client *recall.Client, model chat.Model, userID string) *Planner {
	return &Planner{client: client, model: model, userID: userID}
}

// StorePreference records a travel preference for future planning.
func (p *Planner) StorePreference(ctx context.Context, preference string) error {
	_, err := p.client.Store(ctx, recall.StoreRequest{
		Content: preference,
		UserID:  p.userID,
		Tags:    []string{"preference", "travel"},
	})
	return err
}

// RecordTrip stores a completed trip experience.
func (p *Planner) RecordTrip(ctx context.Context, destination, experience string) error {
	_, err := p.client.Store(ctx, recall.StoreRequest{
		Content: fmt.Sprintf("Visited %s. Experience: %s", destination, experience),
		UserID:  p.userID,
		Tags:    []string{"trip", "visited", strings.ToLower(destination)},
	})
	return err
}

// PlanTrip generates a personalized itinerary from stored preferences and
// past trips, then stores the plan for future reference.
func (p *Planner) PlanTrip(ctx context.Context, destination, duration string) (string, error) {
	preferences, err := p.client.Search(ctx, recall.SearchRequest{
		Query:  "travel preferences accommodation budget activities",
		UserID: p.userID,
		Limit:  10,
	})
	if err != nil {
		return "", fmt.Errorf("retrieve preferences: %w", err)
	}

	pastTrips, err := p.client.Search(ctx, recall.SearchRequest{
		Query:  fmt.Sprintf("visited %s past trips", destination),
		UserID: p.userID,
		Limit:  5,
	})
	if err != nil {
		return "", fmt.Errorf("retrieve past trips: %w", err)
	}

	itinerary, err := p.model.Generate(ctx, chat.GenerateRequest{
		System: systemPrompt,
		User:   itineraryPrompt(destination, duration, preferences.Results, pastTrips.Results),
	})
	if err != nil {
		return "", fmt.Errorf("generate itinerary: %w", err)
	}

	// Store the plan; a first-time traveler simply has no prior records.
	_, err = p.client.Store(ctx, recall.StoreRequest{
		Content: fmt.Sprintf("Planned %s trip to %s: %s", duration, destination, summarize(itinerary)),
		UserID:  p.userID,
		Tags:    []string{"trip", "planned", strings.ToLower(destination)},
	})
	if err != nil {
		return "", fmt.Errorf("store trip plan: %w", err)
	}

	return itinerary, nil
}

// Recommendations returns personalized suggestions for a query, one per line.
func (p *Planner) Recommendations(ctx context.Context, query string) ([]string, error) {
	preferences, err := p.client.Search(ctx, recall.SearchRequest{
		Query:  query,
		UserID: p.userID,
		Limit:  5,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve preferences: %w", err)
	}

	prompt := fmt.Sprintf("Known preferences:\n%s\n\nGive 3 short travel recommendations for: %s\nOne per line, no numbering.",
		chat.ContextBlock(preferences.Results), query)

	text, err := p.model.Generate(ctx, chat.GenerateRequest{
		System: systemPrompt,
		User:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("generate recommendations: %w", err)
	}

	var recommendations []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			recommendations = append(recommendations, line)
		}
	}
	return recommendations, nil
}

// itineraryPrompt assembles the generation prompt from memory context.
func itineraryPrompt(destination, duration string, preferences, pastTrips []recall.Record) string {
	var b strings.Builder
	b.WriteString("Traveler's preferences:\n")
	if len(preferences) == 0 {
		b.WriteString("- none recorded yet\n")
	} else {
		for i, pref := range preferences {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", pref.Text())
		}
	}

	if len(pastTrips) > 0 {
		b.WriteString("\nPast trips:\n")
		for i, trip := range pastTrips {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", trip.Text())
		}
	}

	fmt.Fprintf(&b, "\nPlan a %s trip to %s. Give a day-by-day itinerary.", duration, destination)
	return b.String()
}

// summarize trims an itinerary to a storable one-liner.
func summarize(itinerary string) string {
	line := strings.ReplaceAll(itinerary, "\n", " ")
	if len(line) > 200 {
		line = line[:200] + "..."
	}
	return line
}
