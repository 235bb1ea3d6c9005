package scheduling

import (
	"math"
	"sort"

	"github.com/maplewood-pta/carpool-manager/backend/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// CalculateFairnessMetrics derives one FairnessMetric per current group
// member from the group's schedule history. It is a pure function of its
// inputs: identical history and membership always produce identical output.
//
// fairnessScore = (driving / total) / (1 / memberCount) when total > 0,
// otherwise 1 (a member with no history is treated as exactly fair).
// fairnessDebt = 1/memberCount - actual driving ratio; positive debt means
// the member has driven less than their fair share.
//
// The result is sorted ascending by fairnessScore, so the members most owed
// driving duty come first. Ties keep membership order.
func CalculateFairnessMetrics(group *domain.Group, history []*domain.WeeklySchedule, names map[int64]string) []domain.FairnessMetric {
	memberCount := len(group.MemberIDs)
	if memberCount == 0 {
		return []domain.FairnessMetric{}
	}

	fairShare := 1.0 / float64(memberCount)

	metrics := make([]domain.FairnessMetric, 0, memberCount)
	for _, memberID := range group.MemberIDs {
		driving := 0
		passenger := 0

		for _, schedule := range history {
			for _, assignment := range schedule.Assignments {
				if assignment.DriverID == memberID {
					driving++
					continue
				}
				for _, passengerID := range assignment.PassengerIDs {
					if passengerID == memberID {
						passenger++
						break
					}
				}
			}
		}

		total := driving + passenger

		score := 1.0
		actualRatio := 0.0
		if total > 0 {
			actualRatio = float64(driving) / float64(total)
			score = actualRatio / fairShare
		}

		metrics = append(metrics, domain.FairnessMetric{
			UserID:               memberID,
			FullName:             names[memberID],
			TotalAssignments:     total,
			DrivingAssignments:   driving,
			PassengerAssignments: passenger,
			FairnessScore:        score,
			FairnessDebt:         fairShare - actualRatio,
		})
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].FairnessScore < metrics[j].FairnessScore
	})

	return metrics
}

// CalculateScheduleFairnessScore scores how evenly a week's driving duty is
// spread: max(0, 1 - population variance of per-driver assignment counts).
// A week where every driver drives the same number of days scores 1; a week
// concentrated on one driver scores lower. A week with no assignments is
// vacuously even and scores 1.
func CalculateScheduleFairnessScore(assignments []domain.ScheduleAssignment) float64 {
	if len(assignments) == 0 {
		return 1
	}

	perDriver := make(map[int64]float64)
	for _, assignment := range assignments {
		perDriver[assignment.DriverID]++
	}

	counts := make([]float64, 0, len(perDriver))
	for _, count := range perDriver {
		counts = append(counts, count)
	}

	variance := stat.PopVariance(counts, nil)

	return math.Max(0, 1-variance)
}
