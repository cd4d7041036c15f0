package tasks

import (
	"context"

	"atm-fleet-backend/internal/model"
)

// defaultEstimateHours is the fix-time estimate used for fault categories
// with no fixed-ticket history yet.
const defaultEstimateHours = 2.0

// timeToFixHours is the span from a task's first ASSIGNED (or REASSIGNED)
// entry to its FIXED entry, in hours. Zero when either entry is missing.
func timeToFixHours(t model.Task) float64 {
	assigned, ok := t.StatusTime(model.StatusAssigned)
	if !ok {
		assigned, ok = t.StatusTime(model.StatusReassigned)
	}
	fixed, okFixed := t.StatusTime(model.StatusFixed)
	if !ok || !okFixed {
		return 0
	}
	return fixed.Sub(assigned).Hours()
}

// avgFixTimes groups every fixed ticket by fault category and averages its
// time to fix. A plain scan over query results rather than a storage-side
// aggregation, so the store stays engine-agnostic.
func (s *Service) avgFixTimes(ctx context.Context) (map[model.TaskTitle]float64, error) {
	fixed, err := s.store.FixedTasks(ctx)
	if err != nil {
		return nil, err
	}

	sums := make(map[model.TaskTitle]float64)
	counts := make(map[model.TaskTitle]int)
	for _, t := range fixed {
		sums[t.TaskTitle] += timeToFixHours(t)
		counts[t.TaskTitle]++
	}

	avgs := make(map[model.TaskTitle]float64, len(sums))
	for title, sum := range sums {
		avg := sum / float64(counts[title])
		if avg <= 0 {
			avg = defaultEstimateHours
		}
		avgs[title] = avg
	}
	return avgs, nil
}

// estimateFor returns the expected fix time for a fault category.
func estimateFor(avgs map[model.TaskTitle]float64, title model.TaskTitle) float64 {
	if est, ok := avgs[title]; ok {
		return est
	}
	return defaultEstimateHours
}

// taskEstimate pairs an open task with its expected remaining time.
type taskEstimate struct {
	task     model.Task
	estimate float64
}

// engineerWorkload is one engineer's open tickets weighted by historical
// per-category fix times. Engineers keep the proximity order they were
// queried in; ties elsewhere fall back to that order.
type engineerWorkload struct {
	engineer model.User
	tasks    []taskEstimate
	total    float64
}

// workloads computes the estimated workload of each engineer, preserving
// the input (nearest-first) order.
func (s *Service) workloads(ctx context.Context, engineers []model.User, avgs map[model.TaskTitle]float64) ([]engineerWorkload, error) {
	result := make([]engineerWorkload, 0, len(engineers))
	for _, eng := range engineers {
		open, err := s.store.OpenTasksByAssignee(ctx, eng.ID)
		if err != nil {
			return nil, err
		}

		wl := engineerWorkload{engineer: eng}
		for _, t := range open {
			est := estimateFor(avgs, t.TaskTitle)
			wl.tasks = append(wl.tasks, taskEstimate{task: t, estimate: est})
			wl.total += est
		}
		result = append(result, wl)
	}
	return result, nil
}

// leastLoaded picks the engineer with the minimum total estimate; on equal
// totals the earlier (nearer) engineer wins.
func leastLoaded(workloads []engineerWorkload) engineerWorkload {
	best := workloads[0]
	for _, wl := range workloads[1:] {
		if wl.total < best.total {
			best = wl
		}
	}
	return best
}

// busiest picks the engineer with the maximum total estimate; on equal
// totals the earlier (nearer) engineer wins.
func busiest(workloads []engineerWorkload) engineerWorkload {
	top := workloads[0]
	for _, wl := range workloads[1:] {
		if wl.total > top.total {
			top = wl
		}
	}
	return top
}

// smallestEstimate returns the open task with the lowest individual
// estimate, first-seen order on ties.
func smallestEstimate(tasks []taskEstimate) taskEstimate {
	min := tasks[0]
	for _, te := range tasks[1:] {
		if te.estimate < min.estimate {
			min = te
		}
	}
	return min
}
