// Package dashboard aggregates visit and revenue figures for one month.
package dashboard

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/rc-medicall/backend/internal/calendar"
	"github.com/rc-medicall/backend/internal/storage/models"
)

// MonthLayout is the format of the month query parameter.
const MonthLayout = "2006-01"

// UnknownContact is shown for procedures whose doctor is no longer in the directory.
const UnknownContact = "unknown contact"

// ClassificationNone buckets contacts without a tier.
const ClassificationNone = "None"

const allExecutives = "TODOS"

// Stats is the dashboard for one executive filter and month.
type Stats struct {
	Executive      string         `json:"executive"`
	Month          string         `json:"month"`
	TotalContacts  int            `json:"totalContacts"`
	Planned        int            `json:"planned"`
	Completed      int            `json:"completed"`
	Performance    int            `json:"performance"`
	Classification map[string]int `json:"classification"`
	Revenue        float64        `json:"revenue"`
	Commission     float64        `json:"commission"`
	Procedures     []ProcedureRow `json:"procedures"`
}

// ProcedureRow is a performed procedure counted in the month's revenue.
type ProcedureRow struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	ContactID     string  `json:"contactId"`
	ContactName   string  `json:"contactName"`
	Executive     string  `json:"executive,omitempty"`
	ProcedureType string  `json:"procedureType"`
	Cost          float64 `json:"cost"`
	Commission    float64 `json:"commission"`
}

// ParseMonth reads a YYYY-MM value. An empty value means the month containing now.
func ParseMonth(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	m, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, calendar.Invalid("month", "expected YYYY-MM, got %q", s)
	}
	return m, nil
}

// Compute builds the month's stats for filter. Inputs are not modified.
//
// Procedures reference contacts by ID only. A procedure whose contact is gone is
// shown as UnknownContact and counted only when every executive is selected, since
// its owner cannot be determined.
func Compute(contacts []models.Contact, procedures []models.Procedure, filter calendar.ExecutiveFilter, month time.Time) Stats {
	prefix := month.Format(MonthLayout) + "-"
	inMonth := func(date string) bool { return strings.HasPrefix(date, prefix) }

	scoped := lo.Filter(contacts, func(c models.Contact, _ int) bool { return filter.Match(c.Executive) })

	stats := Stats{
		Executive:     string(filter),
		Month:         month.Format(MonthLayout),
		TotalContacts: len(scoped),
		Classification: map[string]int{
			string(models.ClassificationA): 0,
			string(models.ClassificationB): 0,
			string(models.ClassificationC): 0,
			string(models.ClassificationD): 0,
			ClassificationNone:             0,
		},
		Procedures: []ProcedureRow{},
	}
	if filter.All() {
		stats.Executive = allExecutives
	}

	for i := range scoped {
		c := &scoped[i]
		tier := string(c.Classification)
		if _, ok := stats.Classification[tier]; !ok || tier == "" {
			tier = ClassificationNone
		}
		stats.Classification[tier]++

		for _, v := range c.Visits {
			if !inMonth(v.Date) {
				continue
			}
			if v.Status == models.VisitCompleted {
				stats.Completed++
			} else {
				stats.Planned++
			}
		}
	}
	if total := stats.Planned + stats.Completed; total > 0 {
		stats.Performance = int(math.Round(float64(stats.Completed) / float64(total) * 100))
	}

	byID := lo.KeyBy(contacts, func(c models.Contact) string { return c.ID })
	for _, p := range procedures {
		if p.Status != models.ProcedurePerformed || !inMonth(p.Date) {
			continue
		}
		row := ProcedureRow{
			ID:            p.ID,
			Date:          p.Date,
			ContactID:     p.DoctorID,
			ContactName:   UnknownContact,
			ProcedureType: p.ProcedureType,
			Cost:          p.Cost,
			Commission:    p.Commission,
		}
		contact, known := byID[p.DoctorID]
		switch {
		case known && !filter.Match(contact.Executive):
			continue
		case !known && !filter.All():
			continue
		case known:
			row.ContactName = contact.Name
			row.Executive = contact.Executive
		}
		stats.Procedures = append(stats.Procedures, row)
	}

	sort.SliceStable(stats.Procedures, func(i, j int) bool {
		return stats.Procedures[i].Date > stats.Procedures[j].Date
	})
	stats.Revenue = lo.SumBy(stats.Procedures, func(r ProcedureRow) float64 { return r.Cost })
	stats.Commission = lo.SumBy(stats.Procedures, func(r ProcedureRow) float64 { return r.Commission })
	return stats
}
