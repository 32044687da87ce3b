package progress

import "lms/models/course"

// Milestones are the progress percentages that trigger notifications, ascending.
var Milestones = []float64{25, 50, 75, 100}

// ComputeProgress returns completed/total as a percentage in [0, 100]. It is not rounded.
func ComputeProgress(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return float64(completed) / float64(total) * 100
}

// DeriveStatus maps a percentage onto an enrollment status. Zero keeps the prior status.
func DeriveStatus(pct float64, prior course.EnrollmentStatus) course.EnrollmentStatus {
	switch {
	case pct >= 100:
		return course.StatusCompleted
	case pct > 0:
		return course.StatusInProgress
	default:
		return prior
	}
}

// CrossedMilestone reports whether moving from one percentage to the next passes m.
func CrossedMilestone(from, to, m float64) bool {
	return to >= m && from < m
}

// MilestonesCrossed lists every milestone passed between from and to, ascending.
func MilestonesCrossed(from, to float64) []float64 {
	var crossed []float64
	for _, m := range Milestones {
		if CrossedMilestone(from, to, m) {
			crossed = append(crossed, m)
		}
	}
	return crossed
}
