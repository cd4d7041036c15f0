package tasks

import (
	"context"
	"time"
)

// uptimeWindow is the reporting window for the uptime figure.
const uptimeWindow = 24 * time.Hour

// UptimePercent estimates the share of the last 24 hours an ATM spent
// healthy. Every issue log in the window marks one unhealthy evaluation
// sample; downtime is approximated as samples times the sample interval and
// subtracted from the window. A reporting figure, not an SLA calculation.
func (s *Service) UptimePercent(ctx context.Context, atmID string, sampleInterval time.Duration) (float64, error) {
	since := time.Now().UTC().Add(-uptimeWindow)
	issues, err := s.store.IssueLogsSince(ctx, atmID, since)
	if err != nil {
		return 0, err
	}

	downtime := time.Duration(len(issues)) * sampleInterval
	if downtime >= uptimeWindow {
		return 0, nil
	}
	return 100 * (1 - float64(downtime)/float64(uptimeWindow)), nil
}
