package models

import (
	"time"

	id "safereturn/pkg/domain"
	dErrors "safereturn/pkg/domain-errors"
)

// HousingStatus is the self-reported housing situation for one month.
type HousingStatus string

const (
	HousingStable     HousingStatus = "stable"
	HousingTemporary  HousingStatus = "temporary"
	HousingWithFamily HousingStatus = "with_family"
	HousingHomeless   HousingStatus = "homeless"
)

// JobStatus is the self-reported employment situation for one month.
type JobStatus string

const (
	JobEmployed     JobStatus = "employed"
	JobSelfEmployed JobStatus = "self_employed"
	JobSearching    JobStatus = "searching"
	JobUnemployed   JobStatus = "unemployed"
	JobTraining     JobStatus = "training"
)

// MentalState is the self-reported mental state for one month.
type MentalState string

const (
	MentalGood     MentalState = "good"
	MentalModerate MentalState = "moderate"
	MentalStressed MentalState = "stressed"
	MentalBad      MentalState = "bad"
)

// FamilyStatus is the self-reported family situation for one month.
type FamilyStatus string

const (
	FamilySupportive  FamilyStatus = "supportive"
	FamilyNeutral     FamilyStatus = "neutral"
	FamilyProblematic FamilyStatus = "problematic"
	FamilyNoContact   FamilyStatus = "no_contact"
)

var (
	validHousingStatuses = map[HousingStatus]bool{
		HousingStable: true, HousingTemporary: true, HousingWithFamily: true, HousingHomeless: true,
	}
	validJobStatuses = map[JobStatus]bool{
		JobEmployed: true, JobSelfEmployed: true, JobSearching: true, JobUnemployed: true, JobTraining: true,
	}
	validMentalStates = map[MentalState]bool{
		MentalGood: true, MentalModerate: true, MentalStressed: true, MentalBad: true,
	}
	validFamilyStatuses = map[FamilyStatus]bool{
		FamilySupportive: true, FamilyNeutral: true, FamilyProblematic: true, FamilyNoContact: true,
	}
)

func (h HousingStatus) IsValid() bool { return validHousingStatuses[h] }
func (j JobStatus) IsValid() bool     { return validJobStatuses[j] }
func (m MentalState) IsValid() bool   { return validMentalStates[m] }
func (f FamilyStatus) IsValid() bool  { return validFamilyStatuses[f] }

func (h HousingStatus) String() string { return string(h) }
func (j JobStatus) String() string     { return string(j) }
func (m MentalState) String() string   { return string(m) }
func (f FamilyStatus) String() string  { return string(f) }

// ParseHousingStatus constructs a HousingStatus from external input.
func ParseHousingStatus(s string) (HousingStatus, error) {
	h := HousingStatus(s)
	if !h.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid housing status")
	}
	return h, nil
}

// ParseJobStatus constructs a JobStatus from external input.
func ParseJobStatus(s string) (JobStatus, error) {
	j := JobStatus(s)
	if !j.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid job status")
	}
	return j, nil
}

// ParseMentalState constructs a MentalState from external input.
func ParseMentalState(s string) (MentalState, error) {
	m := MentalState(s)
	if !m.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid mental state")
	}
	return m, nil
}

// ParseFamilyStatus constructs a FamilyStatus from external input.
func ParseFamilyStatus(s string) (FamilyStatus, error) {
	f := FamilyStatus(s)
	if !f.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid family status")
	}
	return f, nil
}

// MonthlyReport is one beneficiary-submitted status snapshot for a specific
// month of a specific case.
//
// Invariants:
//   - MonthIndex is in [1, 12]
//   - all four status fields hold values from their closed sets
//   - at most one report exists per (case, month); resubmission replaces the
//     prior report in place, it does not append
type MonthlyReport struct {
	ID            id.ReportID   `json:"id"`
	CaseID        id.CaseID     `json:"case_id"`
	MonthIndex    int           `json:"month_index"`
	HousingStatus HousingStatus `json:"housing_status"`
	JobStatus     JobStatus     `json:"job_status"`
	MentalState   MentalState   `json:"mental_state"`
	FamilyStatus  FamilyStatus  `json:"family_status"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewMonthlyReport validates every field before anything touches a store.
func NewMonthlyReport(
	reportID id.ReportID,
	caseID id.CaseID,
	monthIndex int,
	housing HousingStatus,
	job JobStatus,
	mental MentalState,
	family FamilyStatus,
	notes string,
	now time.Time,
) (*MonthlyReport, error) {
	if caseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "case id is required")
	}
	if monthIndex < 1 || monthIndex > 12 {
		return nil, dErrors.New(dErrors.CodeValidation, "month index must be between 1 and 12")
	}
	if !housing.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid housing status")
	}
	if !job.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid job status")
	}
	if !mental.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid mental state")
	}
	if !family.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid family status")
	}
	return &MonthlyReport{
		ID:            reportID,
		CaseID:        caseID,
		MonthIndex:    monthIndex,
		HousingStatus: housing,
		JobStatus:     job,
		MentalState:   mental,
		FamilyStatus:  family,
		Notes:         notes,
		CreatedAt:     now,
	}, nil
}
