// Package risk derives the risk tier and the human-facing risk summary from
// monthly reports. Everything here is pure; state changes belong to the
// orchestrator in internal/followup/service.
package risk

import (
	"safereturn/internal/followup/models"
)

// Classify maps one monthly report to a risk tier.
//
// Precedence is strict and first-match-wins; tiers are never combined:
//  1. red if mental state is bad or the person is homeless
//  2. yellow if unemployed, family problematic or no contact, or stressed
//  3. green otherwise
//
// A report matching both red and yellow conditions is red. Classification is
// evaluated fresh on every report; it neither averages nor carries history.
func Classify(r *models.MonthlyReport) models.Tier {
	if r.MentalState == models.MentalBad || r.HousingStatus == models.HousingHomeless {
		return models.TierRed
	}
	if r.JobStatus == models.JobUnemployed ||
		r.FamilyStatus == models.FamilyProblematic ||
		r.MentalState == models.MentalStressed ||
		r.FamilyStatus == models.FamilyNoContact {
		return models.TierYellow
	}
	return models.TierGreen
}
