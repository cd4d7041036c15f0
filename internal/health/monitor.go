package health

import (
	"context"
	"fmt"
	"log"
	"time"

	"atm-fleet-backend/config"
	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/store"
	"atm-fleet-backend/internal/tasks"
)

// Registrar is the assignment engine entry point the monitor raises issues
// through.
type Registrar interface {
	RegisterIssue(ctx context.Context, report tasks.IssueReport) (*tasks.AssignmentResult, error)
}

// Monitor runs the periodic liveness ping and health evaluation jobs. The
// two jobs are independent timers with no ordering between them.
type Monitor struct {
	cfg       *config.MonitorConfig
	store     store.Store
	registrar Registrar
}

// NewMonitor creates a health monitor.
func NewMonitor(cfg *config.MonitorConfig, st store.Store, registrar Registrar) *Monitor {
	return &Monitor{cfg: cfg, store: st, registrar: registrar}
}

// Run starts both periodic jobs and blocks until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if !m.cfg.Enabled {
		log.Println("Health monitor is disabled. Not starting.")
		return
	}
	log.Println("Starting health monitor...")

	go m.loop(ctx, m.cfg.PingInterval, m.PingOnce)
	m.loop(ctx, m.cfg.EvaluateInterval, m.EvaluateOnce)
}

func (m *Monitor) loop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Health monitor job shutting down.")
			return
		case <-timer.C:
			fn(ctx)
			timer.Reset(interval)
		}
	}
}

// PingOnce refreshes the liveness timestamp of every online ATM and marks
// it HEALTHY. Offline terminals are left to go stale.
func (m *Monitor) PingOnce(ctx context.Context) {
	atms, err := m.store.OnlineATMs(ctx)
	if err != nil {
		log.Printf("Error fetching online ATMs for liveness ping: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, atm := range atms {
		if err := m.store.RecordLiveness(ctx, atm.ID, now); err != nil {
			log.Printf("Error recording liveness for ATM %s: %v", atm.ID, err)
		}
	}
}

// EvaluateOnce classifies every ATM's health from its liveness age and
// raises a network-outage issue for any non-healthy terminal. One ATM's
// failure never blocks the rest of the cycle.
func (m *Monitor) EvaluateOnce(ctx context.Context) {
	atms, err := m.store.AllATMs(ctx)
	if err != nil {
		log.Printf("Error fetching ATMs for health evaluation: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, atm := range atms {
		status := m.Classify(atm.LastLivenessAt, now)

		if status != atm.HealthStatus {
			// Conditional on the prior value so a concurrent ping or
			// close-out cannot be overwritten blindly.
			if _, err := m.store.SetHealthStatus(ctx, atm.ID, atm.HealthStatus, status); err != nil {
				log.Printf("Error updating health for ATM %s: %v", atm.ID, err)
				continue
			}
		}

		if status == model.HealthHealthy {
			continue
		}

		if err := m.store.IncrementMissCount(ctx, atm.ID); err != nil {
			log.Printf("Error incrementing miss count for ATM %s: %v", atm.ID, err)
		}

		if _, err := m.registrar.RegisterIssue(ctx, tasks.IssueReport{
			AtmID:            atm.ID,
			HealthStatus:     status,
			TaskTitle:        model.TitleNetworkOutage,
			TaskType:         model.TypeSoftware,
			IssueDescription: fmt.Sprintf("ATM failed liveness check. Marked as %s", status),
		}); err != nil {
			log.Printf("Error registering network outage for ATM %s: %v", atm.ID, err)
		}
	}
}

// Classify derives the health tier from the age of the last liveness ping.
// A missing timestamp counts as infinitely stale.
func (m *Monitor) Classify(lastLivenessAt *time.Time, now time.Time) model.HealthStatus {
	if lastLivenessAt == nil {
		return model.HealthDegraded
	}

	elapsed := now.Sub(*lastLivenessAt)
	switch {
	case elapsed > m.cfg.DegradedAfter:
		return model.HealthDegraded
	case elapsed > m.cfg.CriticalAfter:
		return model.HealthCritical
	case elapsed > m.cfg.WarningAfter:
		return model.HealthWarning
	default:
		return model.HealthHealthy
	}
}
