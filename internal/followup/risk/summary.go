package risk

import (
	"safereturn/internal/followup/models"
)

// Summary is the read-only risk view rendered by UI collaborators. It never
// mutates case state; the tier shown is the case's current tier, not a fresh
// classification.
type Summary struct {
	Tier            models.Tier           `json:"risk_tier"`
	Factors         []string              `json:"factors"`
	Recommendations []string              `json:"recommendations"`
	LatestReport    *models.MonthlyReport `json:"latest_report,omitempty"`
}

// Summarize derives one factor + recommendation pair per matching condition
// of the latest report. "Latest" means most recently submitted, not highest
// month index; a backfilled earlier month submitted later still wins.
// A nil report yields the first-submission prompt.
func Summarize(tier models.Tier, latest *models.MonthlyReport) Summary {
	if latest == nil {
		return Summary{
			Tier:            models.TierGreen,
			Factors:         []string{},
			Recommendations: []string{"Please complete your first monthly check-in"},
		}
	}

	factors := []string{}
	recommendations := []string{}

	if latest.MentalState == models.MentalBad {
		factors = append(factors, "mental state is bad")
		recommendations = append(recommendations, "Refer to psychological support via the counseling line")
	}
	if latest.HousingStatus == models.HousingHomeless {
		factors = append(factors, "homeless")
		recommendations = append(recommendations, "Coordinate with the charitable housing association")
	}
	if latest.JobStatus == models.JobUnemployed {
		factors = append(factors, "unemployed")
		recommendations = append(recommendations, "Show available job opportunities in the area")
	}
	if latest.FamilyStatus == models.FamilyProblematic {
		factors = append(factors, "family problems")
		recommendations = append(recommendations, "Arrange a family counseling session")
	}
	if latest.FamilyStatus == models.FamilyNoContact {
		factors = append(factors, "no family contact")
		recommendations = append(recommendations, "Attempt to rebuild family ties")
	}

	return Summary{
		Tier:            tier,
		Factors:         factors,
		Recommendations: recommendations,
		LatestReport:    latest,
	}
}
