package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	authhandler "safereturn/internal/auth/handler"
	authservice "safereturn/internal/auth/service"
	sessionstore "safereturn/internal/auth/store/session"
	followuphandler "safereturn/internal/followup/handler"
	"safereturn/internal/followup/policy"
	followupservice "safereturn/internal/followup/service"
	profilestore "safereturn/internal/followup/store/profile"
	reportstore "safereturn/internal/followup/store/report"
	jobhandler "safereturn/internal/job/handler"
	jobservice "safereturn/internal/job/service"
	jobstore "safereturn/internal/job/store"
	notifhandler "safereturn/internal/notification/handler"
	notifservice "safereturn/internal/notification/service"
	notifstore "safereturn/internal/notification/store"
	personhandler "safereturn/internal/person/handler"
	personmodels "safereturn/internal/person/models"
	personservice "safereturn/internal/person/service"
	personstore "safereturn/internal/person/store"
	tickethandler "safereturn/internal/ticket/handler"
	ticketservice "safereturn/internal/ticket/service"
	ticketstore "safereturn/internal/ticket/store"
	"safereturn/internal/token"
	id "safereturn/pkg/domain"
)

const (
	adminNationalID       = "1000000001"
	caseworkerNationalID  = "1000000002"
	beneficiaryNationalID = "1000000003"
)

// RouterSuite exercises the whole HTTP surface against real services backed
// by in-memory stores.
type RouterSuite struct {
	suite.Suite
	router  chi.Router
	persons *personstore.InMemory

	adminToken       string
	caseworkerToken  string
	beneficiaryToken string
	caseworkerID     id.PersonID
	beneficiaryID    id.PersonID
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.persons = personstore.NewInMemory()
	cases := profilestore.NewInMemory()
	reports := reportstore.NewInMemory()
	tickets := ticketstore.NewInMemory()
	notifications := notifstore.NewInMemory()
	jobs := jobstore.NewInMemory()
	sessions := sessionstore.NewInMemory()

	tokens := token.NewService("test-signing-key", "safereturn", "safereturn-api")
	auth := authservice.NewService(sessions, s.persons, tokens, 24*time.Hour)

	notifier := notifservice.NewService(notifications)
	ticketPolicy, err := policy.New(tickets)
	s.Require().NoError(err)
	followup := followupservice.NewService(cases, reports, s.persons, ticketPolicy, notifier)
	ticketSvc := ticketservice.NewService(tickets, cases, notifier)
	personSvc := personservice.NewService(s.persons, cases, reports, tickets, notifications)
	jobSvc := jobservice.NewService(jobs)

	s.router = New(Handlers{
		Auth:          authhandler.New(auth, log),
		Person:        personhandler.New(personSvc, log),
		Followup:      followuphandler.New(followup, log),
		Ticket:        tickethandler.New(ticketSvc, log),
		Notification:  notifhandler.New(notifier, log),
		Job:           jobhandler.New(jobSvc, log),
		TokenVerifier: auth,
	}, log)

	s.seedPerson(adminNationalID, "System Admin", id.RoleAdmin)
	s.caseworkerID = s.seedPerson(caseworkerNationalID, "Sara Al-Qahtani", id.RoleCaseWorker)
	s.beneficiaryID = s.seedPerson(beneficiaryNationalID, "Ahmed Al-Salem", id.RoleBeneficiary)

	s.adminToken = s.login(adminNationalID)
	s.caseworkerToken = s.login(caseworkerNationalID)
	s.beneficiaryToken = s.login(beneficiaryNationalID)
}

func (s *RouterSuite) seedPerson(nationalID, name string, role id.Role) id.PersonID {
	p, err := personmodels.NewPerson(
		id.PersonID(uuid.New()), nationalID, name, role, "", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.persons.CreateIfNationalIDAvailable(context.Background(), p))
	return p.ID
}

func (s *RouterSuite) login(nationalID string) string {
	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{"national_id": nationalID})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Require().NotEmpty(resp.AccessToken)
	return resp.AccessToken
}

func (s *RouterSuite) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) createCase() string {
	rec := s.do(http.MethodPost, "/cases", s.adminToken, map[string]string{
		"person_id":    s.beneficiaryID.String(),
		"release_date": "2026-01-10",
		"city":         "riyadh",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	return resp.ID
}

func (s *RouterSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestLoginRejectsUnknownNationalID() {
	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{"national_id": "9999999999"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestMissingTokenIsUnauthorized() {
	rec := s.do(http.MethodGet, "/cases", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestRoleGates() {
	// beneficiaries cannot touch case management or the registry
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/cases", s.beneficiaryToken, nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/persons", s.beneficiaryToken, map[string]string{}).Code)
	// caseworkers cannot administer the registry
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/persons", s.caseworkerToken, map[string]string{}).Code)
	// admins cannot submit check-ins
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/me/checkins", s.adminToken, map[string]any{}).Code)
}

func (s *RouterSuite) TestLogoutRevokesSession() {
	rec := s.do(http.MethodPost, "/auth/logout", s.beneficiaryToken, nil)
	s.Require().Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/me/case", s.beneficiaryToken, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestCheckinFlow() {
	caseID := s.createCase()

	rec := s.do(http.MethodPost, "/cases/"+caseID+"/assign", s.adminToken,
		map[string]string{"caseworker_id": s.caseworkerID.String()})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/me/checkins", s.beneficiaryToken, map[string]any{
		"month_index":    1,
		"housing_status": "homeless",
		"job_status":     "unemployed",
		"mental_state":   "good",
		"family_status":  "supportive",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		OldTier        string `json:"old_risk_tier"`
		NewTier        string `json:"new_risk_tier"`
		TierChanged    bool   `json:"risk_tier_changed"`
		CreatedTickets []struct {
			Category string `json:"category"`
		} `json:"created_tickets"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&result))
	s.Equal("green", result.OldTier)
	s.Equal("red", result.NewTier)
	s.True(result.TierChanged)
	s.Len(result.CreatedTickets, 2)

	// the beneficiary sees the tier-change notification
	rec = s.do(http.MethodGet, "/me/notifications", s.beneficiaryToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var inbox struct {
		Notifications []struct {
			ID   string `json:"id"`
			Read bool   `json:"read"`
		} `json:"notifications"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&inbox))
	s.Require().Len(inbox.Notifications, 1)
	s.False(inbox.Notifications[0].Read)

	// and can mark it read
	rec = s.do(http.MethodPost, "/notifications/"+inbox.Notifications[0].ID+"/read", s.beneficiaryToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	// the caseworker got the housing alert and sees the case
	rec = s.do(http.MethodGet, "/me/notifications", s.caseworkerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "homeless")

	rec = s.do(http.MethodGet, "/cases", s.caseworkerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), caseID)

	// dashboard and summary reflect the red report
	rec = s.do(http.MethodGet, "/cases/"+caseID, s.caseworkerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/cases/"+caseID+"/summary", s.caseworkerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "red")
}

func (s *RouterSuite) TestBeneficiaryDashboard() {
	s.createCase()
	rec := s.do(http.MethodGet, "/me/case", s.beneficiaryToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Contains(rec.Body.String(), "current_month")
}

func (s *RouterSuite) TestManualTicketFlow() {
	caseID := s.createCase()

	rec := s.do(http.MethodPost, "/cases/"+caseID+"/tickets", s.caseworkerToken,
		map[string]string{"category": "financial", "notes": "rent assistance"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var ticket struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&ticket))

	rec = s.do(http.MethodPost, "/tickets/"+ticket.ID+"/status", s.caseworkerToken,
		map[string]string{"status": "resolved"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "resolved")

	rec = s.do(http.MethodGet, "/cases/"+caseID+"/tickets", s.caseworkerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), ticket.ID)
}

func (s *RouterSuite) TestCompleteCaseConflictOnRepeat() {
	caseID := s.createCase()

	rec := s.do(http.MethodPost, "/cases/"+caseID+"/complete", s.caseworkerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/cases/"+caseID+"/complete", s.caseworkerToken, nil)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *RouterSuite) TestJobBoard() {
	rec := s.do(http.MethodPost, "/jobs", s.adminToken, map[string]string{
		"title":   "Warehouse operator",
		"company": "Alpha Logistics",
		"city":    "riyadh",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var job struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&job))

	rec = s.do(http.MethodGet, "/jobs?city=riyadh", s.beneficiaryToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Warehouse operator")

	rec = s.do(http.MethodGet, "/jobs?city=jeddah", s.beneficiaryToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), "Warehouse operator")

	rec = s.do(http.MethodDelete, "/jobs/"+job.ID, s.adminToken, nil)
	s.Require().Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/jobs", s.beneficiaryToken, nil)
	s.NotContains(rec.Body.String(), "Warehouse operator")
}

func (s *RouterSuite) TestRegisterAndDeletePerson() {
	rec := s.do(http.MethodPost, "/persons", s.adminToken, map[string]string{
		"national_id": "1000000004",
		"full_name":   "Khalid Al-Otaibi",
		"role":        "beneficiary",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var person struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&person))

	rec = s.do(http.MethodGet, "/persons/"+person.ID, s.caseworkerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "Khalid Al-Otaibi")

	rec = s.do(http.MethodDelete, fmt.Sprintf("/persons/%s", person.ID), s.adminToken, nil)
	s.Require().Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/persons/"+person.ID, s.caseworkerToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}
