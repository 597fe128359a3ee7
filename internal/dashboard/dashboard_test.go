package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rc-medicall/backend/internal/calendar"
	"github.com/rc-medicall/backend/internal/storage/models"
)

func fixture() ([]models.Contact, []models.Procedure) {
	contacts := []models.Contact{
		{
			ID: "med-1", Name: "DR. ALFA", Executive: "LUIS", Classification: models.ClassificationA,
			Visits: []models.Visit{
				{ID: "v1", Date: "2025-03-03", Status: models.VisitCompleted},
				{ID: "v2", Date: "2025-03-10", Status: models.VisitPlanned},
				{ID: "v3", Date: "2025-02-28", Status: models.VisitCompleted},
			},
		},
		{
			ID: "med-2", Name: "DRA. BETA", Executive: "ORALIA", Classification: models.ClassificationB,
			Visits: []models.Visit{
				{ID: "v4", Date: "2025-03-04", Status: models.VisitCompleted},
			},
		},
		{ID: "med-3", Name: "DR. GAMA", Executive: "LUIS"},
	}
	procedures := []models.Procedure{
		{ID: "p1", Date: "2025-03-05", DoctorID: "med-1", Cost: 1000, Commission: 100, Status: models.ProcedurePerformed},
		{ID: "p2", Date: "2025-03-20", DoctorID: "med-2", Cost: 500, Commission: 50, Status: models.ProcedurePerformed},
		{ID: "p3", Date: "2025-03-21", DoctorID: "gone", Cost: 300, Commission: 30, Status: models.ProcedurePerformed},
		{ID: "p4", Date: "2025-03-22", DoctorID: "med-1", Cost: 9999, Status: models.ProcedureScheduled},
		{ID: "p5", Date: "2025-04-01", DoctorID: "med-1", Cost: 9999, Status: models.ProcedurePerformed},
	}
	return contacts, procedures
}

func march(t *testing.T) time.Time {
	m, err := ParseMonth("2025-03", time.Now())
	require.NoError(t, err)
	return m
}

func TestComputeAllExecutives(t *testing.T) {
	contacts, procedures := fixture()

	stats := Compute(contacts, procedures, calendar.ExecutiveFilter("TODOS"), march(t))

	assert.Equal(t, "TODOS", stats.Executive)
	assert.Equal(t, "2025-03", stats.Month)
	assert.Equal(t, 3, stats.TotalContacts)
	assert.Equal(t, 1, stats.Planned)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 67, stats.Performance)
	assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 0, "D": 0, "None": 1}, stats.Classification)
	assert.InDelta(t, 1800, stats.Revenue, 0.001)
	assert.InDelta(t, 180, stats.Commission, 0.001)

	require.Len(t, stats.Procedures, 3)
	assert.Equal(t, "p3", stats.Procedures[0].ID)
	assert.Equal(t, UnknownContact, stats.Procedures[0].ContactName)
	assert.Equal(t, "DRA. BETA", stats.Procedures[1].ContactName)
}

func TestComputeOneExecutive(t *testing.T) {
	contacts, procedures := fixture()

	stats := Compute(contacts, procedures, calendar.ExecutiveFilter("luis"), march(t))

	assert.Equal(t, 2, stats.TotalContacts)
	assert.Equal(t, 1, stats.Planned)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 50, stats.Performance)
	assert.InDelta(t, 1000, stats.Revenue, 0.001)
	require.Len(t, stats.Procedures, 1)
	assert.Equal(t, "LUIS", stats.Procedures[0].Executive)
}

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil, nil, calendar.ExecutiveFilter(""), march(t))

	assert.Zero(t, stats.Performance)
	assert.Zero(t, stats.Revenue)
	assert.NotNil(t, stats.Procedures)
}

func TestParseMonth(t *testing.T) {
	now := time.Date(2025, 7, 19, 15, 0, 0, 0, time.UTC)

	m, err := ParseMonth("", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-07", m.Format(MonthLayout))

	_, err = ParseMonth("07/2025", now)
	assert.True(t, calendar.IsValidation(err))
}
