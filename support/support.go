// Package support is the customer-support cookbook: memory-backed ticket
// handling with keyword-based category and sentiment detection.
package support

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/recallai/recall-go/chat"
	"github.com/recallai/recall-go/recall"
)

const systemPrompt = "You are a helpful customer support agent. Use the customer history to provide personalized, context-aware support."

// Categories assigned by DetectCategory.
const (
	CategoryBilling   = "billing"
	CategoryTechnical = "technical"
	CategoryAccount   = "account"
	CategoryProduct   = "product"
	CategoryGeneral   = "general"
)

// Sentiments assigned by DetectSentiment.
const (
	SentimentNegative = "negative"
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
)

// Agent handles customer queries with full memory context.
type Agent struct {
	client *recall.Client
	model  chat.Model
}

// NewAgent creates a support agent.
func NewAgent(client *recall.Client, model chat.Model) *Agent {
	return &Agent{client: client, model: model}
}

// TicketResult is the outcome of one handled query.
type TicketResult struct {
	TicketID     string
	CustomerID   string
	Query        string
	Response     string
	MemoriesUsed int
}

// HandleQuery processes a customer query: retrieve the customer's history,
// generate a context-aware response, then store the interaction tagged with
// its detected category and sentiment.
func (a *Agent) HandleQuery(ctx context.Context, customerID, query, ticketID string) (*TicketResult, error) {
	history, err := a.client.Search(ctx, recall.SearchRequest{
		Query:  query,
		UserID: customerID,
		Limit:  5,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve customer history: %w", err)
	}

	response, err := a.model.Generate(ctx, chat.GenerateRequest{
		System: systemPrompt,
		User:   formatContext(history.Results, query) + "\n\nPlease respond to the current query.",
	})
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}

	a.storeInteraction(ctx, customerID, query, ticketID)

	return &TicketResult{
		TicketID:     ticketID,
		CustomerID:   customerID,
		Query:        query,
		Response:     response,
		MemoriesUsed: len(history.Results),
	}, nil
}

// storeInteraction records the query tagged with category and sentiment.
// Fire-and-forget: a storage failure must not fail the ticket.
func (a *Agent) storeInteraction(ctx context.Context, customerID, query, ticketID string) {
	category := DetectCategory(query)
	sentiment := DetectSentiment(query)

	metadata := map[string]any{
		"category":  category,
		"sentiment": sentiment,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if ticketID != "" {
		metadata["ticket_id"] = ticketID
	}

	_, err := a.client.Store(ctx, recall.StoreRequest{
		Content:  "Customer query: " + query,
		UserID:   customerID,
		Metadata: metadata,
		Tags:     []string{category, sentiment, "support"},
	})
	if err != nil {
		log.Printf("[SUPPORT] Failed to store interaction for customer=%s: %v", customerID, err)
	}
}

// formatContext renders customer history for the prompt. The top three
// records are listed with their tags and timestamps.
func formatContext(history []recall.Record, query string) string {
	var b strings.Builder
	b.WriteString("# CUSTOMER HISTORY\n\n")

	if len(history) == 0 {
		b.WriteString("No previous interactions found.\n")
	} else {
		b.WriteString("Previous interactions:\n")
		for i, rec := range history {
			if i == 3 {
				break
			}
			timestamp := "Unknown"
			if !rec.CreatedAt.IsZero() {
				timestamp = rec.CreatedAt.Format("2006-01-02")
			}
			fmt.Fprintf(&b, "- [%s] %s (on %s)\n", strings.Join(rec.Tags, ", "), rec.Text(), timestamp)
		}
	}

	fmt.Fprintf(&b, "\n# CURRENT QUERY\n%s\n", query)
	return b.String()
}

var categoryKeywords = map[string][]string{
	CategoryBilling:   {"invoice", "charge", "payment", "refund", "billing", "price"},
	CategoryTechnical: {"bug", "error", "crash", "not working", "broken", "issue"},
	CategoryAccount:   {"password", "login", "access", "account", "signup", "register"},
	CategoryProduct:   {"feature", "how to", "usage", "guide", "help", "tutorial"},
}

// categoryOrder fixes the match precedence; map iteration order would make
// categorization nondeterministic for queries matching several categories.
var categoryOrder = []string{CategoryBilling, CategoryTechnical, CategoryAccount, CategoryProduct}

// DetectCategory assigns a support category by keyword match.
func DetectCategory(query string) string {
	lower := strings.ToLower(query)
	for _, category := range categoryOrder {
		for _, term := range categoryKeywords[category] {
			if strings.Contains(lower, term) {
				return category
			}
		}
	}
	return CategoryGeneral
}

var (
	negativeWords = []string{"frustrated", "angry", "disappointed", "terrible", "worst", "hate"}
	positiveWords = []string{"thanks", "appreciate", "great", "excellent", "happy", "love"}
)

// DetectSentiment classifies a query for escalation tracking.
func DetectSentiment(query string) string {
	lower := strings.ToLower(query)
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			return SentimentNegative
		}
	}
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			return SentimentPositive
		}
	}
	return SentimentNeutral
}

// Summary aggregates a customer's interaction history.
type Summary struct {
	CustomerID        string
	TotalInteractions int
	Categories        map[string]int
	Sentiments        map[string]int
	RecentMemories    []recall.Record
}

// CustomerSummary analyzes patterns across all stored interactions for one
// customer.
func (a *Agent) CustomerSummary(ctx context.Context, customerID string) (*Summary, error) {
	resp, err := a.client.GetAll(ctx, recall.ListRequest{UserID: customerID})
	if err != nil {
		return nil, fmt.Errorf("list customer memories: %w", err)
	}

	summary := &Summary{
		CustomerID:        customerID,
		TotalInteractions: len(resp.Memories),
		Categories:        make(map[string]int),
		Sentiments:        make(map[string]int),
	}

	for _, rec := range resp.Memories {
		for _, tag := range rec.Tags {
			switch tag {
			case CategoryBilling, CategoryTechnical, CategoryAccount, CategoryProduct:
				summary.Categories[tag]++
			case SentimentPositive, SentimentNegative, SentimentNeutral:
				summary.Sentiments[tag]++
			}
		}
	}

	recent := resp.Memories
	if len(recent) > 5 {
		recent = recent[:5]
	}
	summary.RecentMemories = recent
	return summary, nil
}
