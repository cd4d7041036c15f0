package report

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"atm-fleet-backend/config"
	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/store"
	"atm-fleet-backend/internal/tasks"
)

type stubGenerator struct {
	reply  string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func newTestGenerator(t *testing.T, ai TextGenerator) (*Generator, store.Store) {
	t.Helper()

	testDB, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(&model.ATM{}, &model.User{}, &model.IssueLog{},
		&model.Task{}, &model.StatusEntry{}))

	st := store.NewGormStore(testDB)
	return NewGenerator(st, ai), st
}

func seedReportFixture(t *testing.T, st store.Store) *model.Task {
	t.Helper()
	ctx := context.Background()

	atm := &model.ATM{}
	require.NoError(t, st.CreateATM(ctx, atm))
	eng := &model.User{Email: "eng@example.com", Role: model.RoleEngineer}
	require.NoError(t, st.CreateUser(ctx, eng))

	require.NoError(t, st.CreateIssueLog(ctx, &model.IssueLog{
		AtmID: atm.ID, HealthStatus: model.HealthCritical, Time: time.Now().UTC(),
	}))

	start := time.Now().UTC().Add(-48 * time.Hour)
	fixed := &model.Task{
		AssigneeID:   eng.ID,
		AtmID:        atm.ID,
		TaskTitle:    model.TitleCardJammed,
		TaskType:     model.TypeHardware,
		EngineerNote: "Cleared the card path and ran a test cycle",
		StatusDetails: []model.StatusEntry{
			{Status: model.StatusAssigned, Time: start},
			{Status: model.StatusFixed, Time: start.Add(3 * time.Hour)},
		},
	}
	require.NoError(t, st.CreateTask(ctx, fixed))

	open := &model.Task{
		AssigneeID:       eng.ID,
		AtmID:            atm.ID,
		TaskTitle:        model.TitleCardJammed,
		TaskType:         model.TypeHardware,
		IssueDescription: "Card jammed in ATM dispenser",
		StatusDetails: []model.StatusEntry{
			{Status: model.StatusAssigned, Time: time.Now().UTC()},
		},
	}
	require.NoError(t, st.CreateTask(ctx, open))
	return open
}

func TestGenerateStructuredReport(t *testing.T) {
	ai := &stubGenerator{reply: "```json\n" +
		`{"probableIssues": ["Worn card reader rollers"], "fixRecommendations": ["Replace the transport belt"]}` +
		"\n```"}
	gen, st := newTestGenerator(t, ai)

	task := seedReportFixture(t, st)

	report, err := gen.Generate(context.Background(), task.ID)
	require.NoError(t, err)

	assert.Equal(t, task.ID, report.TaskID)
	assert.Equal(t, model.TitleCardJammed, report.TaskTitle)
	assert.InDelta(t, 3.0, report.AverageFixHours, 1e-9)
	require.Len(t, report.HistoricalCases, 1)
	assert.Equal(t, "Cleared the card path and ran a test cycle", report.HistoricalCases[0].EngineerNote)
	assert.Equal(t, []string{"Worn card reader rollers"}, report.ProbableIssues)
	assert.Equal(t, []string{"Replace the transport belt"}, report.FixRecommendations)

	// The prompt carries the ticket, history and observations.
	assert.Contains(t, ai.prompt, "CARD_JAMMED")
	assert.Contains(t, ai.prompt, "Card jammed in ATM dispenser")
	assert.Contains(t, ai.prompt, "CRITICAL")
}

func TestGenerateDegradesOnAIFailure(t *testing.T) {
	gen, st := newTestGenerator(t, &stubGenerator{err: errors.New("upstream timeout")})
	task := seedReportFixture(t, st)

	report, err := gen.Generate(context.Background(), task.ID)
	require.NoError(t, err)

	// History survives; the structured analysis is the only missing part.
	assert.InDelta(t, 3.0, report.AverageFixHours, 1e-9)
	require.Len(t, report.ProbableIssues, 1)
	assert.Contains(t, report.ProbableIssues[0], "unavailable")
	assert.Empty(t, report.FixRecommendations)
}

func TestGenerateKeepsUnparseableReply(t *testing.T) {
	gen, st := newTestGenerator(t, &stubGenerator{reply: "I think the card reader is broken."})
	task := seedReportFixture(t, st)

	report, err := gen.Generate(context.Background(), task.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"I think the card reader is broken."}, report.FixRecommendations)
}

func TestGenerateUnknownTask(t *testing.T) {
	gen, _ := newTestGenerator(t, &stubGenerator{})

	_, err := gen.Generate(context.Background(), "missing")
	assert.ErrorIs(t, err, tasks.ErrTaskNotFound)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, extractJSON("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, extractJSON(`Sure: {"a": 1} hope that helps`))
	assert.Equal(t, "no braces here", extractJSON("no braces here"))
}

func TestHTTPGeneratorGenerate(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello"}]}}]}`))
	}))
	defer server.Close()

	client := NewHTTPGenerator(&config.AIConfig{
		URL:            server.URL,
		APIKey:         "test-key",
		Model:          "gemini-2.5-flash",
		TimeoutSeconds: 5,
	})

	text, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
}

func TestHTTPGeneratorErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPGenerator(&config.AIConfig{URL: server.URL, Model: "m", TimeoutSeconds: 5})
	_, err := client.Generate(context.Background(), "prompt")
	assert.ErrorContains(t, err, "status 429")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer empty.Close()

	client = NewHTTPGenerator(&config.AIConfig{URL: empty.URL, Model: "m", TimeoutSeconds: 5})
	_, err = client.Generate(context.Background(), "prompt")
	assert.ErrorContains(t, err, "no candidates")
}
