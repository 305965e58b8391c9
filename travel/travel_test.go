package travel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallai/recall-go/chat"
	"github.com/recallai/recall-go/recall"
	"github.com/recallai/recall-go/recall/embedder/mock"
	"github.com/recallai/recall-go/recall/localdb"
	"github.com/recallai/recall-go/travel"
)

type stubModel struct {
	answer   string
	lastUser string
}

func (m *stubModel) Generate(ctx context.Context, req chat.GenerateRequest) (string, error) {
	m.lastUser = req.User
	return m.answer, nil
}

func (m *stubModel) GenerateStream(ctx context.Context, req chat.GenerateRequest, callback func(string)) (string, error) {
	callback(m.answer)
	return m.answer, nil
}

func newPlanner(t *testing.T, model chat.Model, userID string) (*travel.Planner, *recall.Client) {
	t.Helper()
	store, err := localdb.New(mock.New())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client, err := recall.New(recall.Config{Backend: store})
	require.NoError(t, err)
	return travel.NewPlanner(client, model, userID), client
}

func TestStorePreference(t *testing.T) {
	planner, client := newPlanner(t, &stubModel{}, "traveler_1")
	ctx := context.Background()

	require.NoError(t, planner.StorePreference(ctx, "I prefer boutique hotels over chains"))

	list, err := client.GetAll(ctx, recall.ListRequest{UserID: "traveler_1"})
	require.NoError(t, err)
	require.Len(t, list.Memories, 1)
	assert.Contains(t, list.Memories[0].Tags, "preference")
	assert.Contains(t, list.Memories[0].Tags, "travel")
}

func TestRecordTrip(t *testing.T) {
	planner, client := newPlanner(t, &stubModel{}, "traveler_1")
	ctx := context.Background()

	require.NoError(t, planner.RecordTrip(ctx, "Kyoto", "Loved the temples, too crowded in autumn"))

	list, err := client.GetAll(ctx, recall.ListRequest{UserID: "traveler_1"})
	require.NoError(t, err)
	require.Len(t, list.Memories, 1)
	assert.Contains(t, list.Memories[0].Content, "Visited Kyoto")
	assert.Contains(t, list.Memories[0].Tags, "kyoto")
}

func TestPlanTripFirstTimer(t *testing.T) {
	// A first-time traveler has no preferences yet; planning still works
	// and the plan itself is stored for next time.
	model := &stubModel{answer: "Day 1: arrive. Day 2: explore."}
	planner, client := newPlanner(t, model, "traveler_2")
	ctx := context.Background()

	itinerary, err := planner.PlanTrip(ctx, "Lisbon", "3-day")
	require.NoError(t, err)
	assert.Equal(t, "Day 1: arrive. Day 2: explore.", itinerary)
	assert.Contains(t, model.lastUser, "none recorded yet")
	assert.Contains(t, model.lastUser, "Plan a 3-day trip to Lisbon")

	list, err := client.GetAll(ctx, recall.ListRequest{UserID: "traveler_2"})
	require.NoError(t, err)
	require.Len(t, list.Memories, 1)
	assert.Contains(t, list.Memories[0].Content, "Planned 3-day trip to Lisbon")
	assert.Contains(t, list.Memories[0].Tags, "planned")
}

func TestRecommendationsSplitsLines(t *testing.T) {
	model := &stubModel{answer: "Try the coastal train\n\nVisit the old town\nEat at the market\n"}
	planner, _ := newPlanner(t, model, "traveler_3")

	recs, err := planner.Recommendations(context.Background(), "day trips near Lisbon")
	require.NoError(t, err)
	assert.Equal(t, []string{"Try the coastal train", "Visit the old town", "Eat at the market"}, recs)
}
