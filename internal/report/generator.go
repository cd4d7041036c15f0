package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/store"
	"atm-fleet-backend/internal/tasks"
)

const (
	historyLimit  = 5
	issueLogLimit = 10
)

// HistoricalCase is one prior fixed ticket of the same fault category.
type HistoricalCase struct {
	TaskID       string  `json:"taskId"`
	EngineerNote string  `json:"engineerNote,omitempty"`
	TimeToFixHrs float64 `json:"timeToFixHours"`
}

// DiagnosticReport is the AI-assisted report for an open ticket.
type DiagnosticReport struct {
	TaskID             string           `json:"taskId"`
	TaskTitle          model.TaskTitle  `json:"taskTitle"`
	AtmID              string           `json:"atmId"`
	AverageFixHours    float64          `json:"averageFixHours"`
	HistoricalCases    []HistoricalCase `json:"historicalCases"`
	ProbableIssues     []string         `json:"probableIssues"`
	FixRecommendations []string         `json:"fixRecommendations"`
}

// structuredReply is the JSON shape the generator is asked to reply in.
type structuredReply struct {
	ProbableIssues     []string `json:"probableIssues"`
	FixRecommendations []string `json:"fixRecommendations"`
}

// Generator assembles ticket and fleet history into a prompt and delegates
// the free-text diagnosis to the text-generation collaborator.
type Generator struct {
	store store.Store
	ai    TextGenerator
}

// NewGenerator creates a diagnostic report generator.
func NewGenerator(st store.Store, ai TextGenerator) *Generator {
	return &Generator{store: st, ai: ai}
}

// Generate builds the diagnostic report for a ticket. A failing or
// unparseable AI response degrades to the raw text in the same shape; only
// a missing ticket is an error.
func (g *Generator) Generate(ctx context.Context, taskID string) (*DiagnosticReport, error) {
	task, err := g.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tasks.ErrTaskNotFound
		}
		return nil, err
	}

	history, err := g.store.FixedTasksByTitle(ctx, task.TaskTitle, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load historical tickets: %w", err)
	}

	issues, err := g.store.RecentIssueLogs(ctx, task.AtmID, issueLogLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent issue logs: %w", err)
	}

	cases := make([]HistoricalCase, 0, len(history))
	var totalHours float64
	for _, h := range history {
		hrs := timeToFix(h)
		totalHours += hrs
		cases = append(cases, HistoricalCase{
			TaskID:       h.ID,
			EngineerNote: h.EngineerNote,
			TimeToFixHrs: hrs,
		})
	}
	var avgHours float64
	if len(cases) > 0 {
		avgHours = totalHours / float64(len(cases))
	}

	report := &DiagnosticReport{
		TaskID:          task.ID,
		TaskTitle:       task.TaskTitle,
		AtmID:           task.AtmID,
		AverageFixHours: avgHours,
		HistoricalCases: cases,
	}

	prompt := buildPrompt(task, issues, cases, avgHours)
	text, err := g.ai.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Warning: diagnostic generation for task %s degraded: %v", taskID, err)
		report.ProbableIssues = []string{"Diagnostic service unavailable; no structured analysis produced."}
		report.FixRecommendations = []string{}
		return report, nil
	}

	var reply structuredReply
	if err := json.Unmarshal([]byte(extractJSON(text)), &reply); err != nil {
		report.ProbableIssues = []string{"Diagnostic reply was not structured; raw text follows in recommendations."}
		report.FixRecommendations = []string{text}
		return report, nil
	}

	report.ProbableIssues = reply.ProbableIssues
	report.FixRecommendations = reply.FixRecommendations
	return report, nil
}

// timeToFix is the span from assignment to fix in hours, zero when either
// trail entry is missing.
func timeToFix(t model.Task) float64 {
	start, ok := t.StatusTime(model.StatusAssigned)
	if !ok {
		start, ok = t.StatusTime(model.StatusReassigned)
	}
	fixed, okFixed := t.StatusTime(model.StatusFixed)
	if !ok || !okFixed {
		return 0
	}
	return fixed.Sub(start).Hours()
}

func buildPrompt(task *model.Task, issues []model.IssueLog, cases []HistoricalCase, avgHours float64) string {
	var b strings.Builder

	b.WriteString("You are a field-maintenance assistant for an ATM fleet.\n")
	b.WriteString("Analyse the ticket below and reply ONLY with JSON of the shape ")
	b.WriteString(`{"probableIssues": [...], "fixRecommendations": [...]}.` + "\n\n")

	fmt.Fprintf(&b, "Current ticket: category=%s type=%s status=%s\n",
		task.TaskTitle, task.TaskType, task.CurrentStatus())
	fmt.Fprintf(&b, "Description: %s\n\n", task.IssueDescription)

	b.WriteString("Recent health observations for this ATM (newest first):\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "- %s at %s\n", issue.HealthStatus, issue.Time.Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintf(&b, "\nHistorical fixed tickets of the same category (avg fix time %.1fh):\n", avgHours)
	for _, c := range cases {
		note := c.EngineerNote
		if note == "" {
			note = "(no engineer note)"
		}
		fmt.Fprintf(&b, "- fixed in %.1fh: %s\n", c.TimeToFixHrs, note)
	}

	return b.String()
}

// extractJSON strips markdown fences or surrounding prose from a reply,
// keeping the outermost object.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}
