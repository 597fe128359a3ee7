package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rc-medicall/backend/internal/storage/models"
)

func fixture() ([]models.Contact, []models.TimeOffEvent) {
	contacts := []models.Contact{
		{
			ID: "c1", Executive: "LUIS", Name: "BETA",
			Visits: []models.Visit{
				{ID: "v1", Date: "2024-06-10", Time: "12:00", Outcome: models.OutcomePlaneada},
				{ID: "v2", Date: "2024-06-10", Time: "09:00", Outcome: models.OutcomeCita},
				{ID: "v3", Date: "2024-06-11", Time: "10:00", Outcome: models.OutcomePlaneada},
			},
		},
		{
			ID: "c2", Executive: "LUIS", Name: "ALFA",
			Visits: []models.Visit{
				{ID: "v4", Date: "2024-06-10", Time: "12:00", Outcome: models.OutcomeSeguimiento},
			},
		},
		{
			ID: "c3", Executive: "MARIA", Name: "GAMMA",
			Visits: []models.Visit{
				{ID: "v5", Date: "2024-06-10", Time: "08:00", Outcome: models.OutcomePlaneada},
			},
		},
	}
	timeOff := []models.TimeOffEvent{
		{ID: "t1", Executive: "LUIS", StartDate: "2024-06-09", EndDate: "2024-06-11", Reason: models.ReasonJunta},
		{ID: "t2", Executive: "MARIA", StartDate: "2024-06-10", EndDate: "2024-06-10", Reason: models.ReasonPermiso},
	}
	return contacts, timeOff
}

func ids(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestEventsForDay_Ordering(t *testing.T) {
	contacts, timeOff := fixture()

	events := EventsForDay(contacts, timeOff, "LUIS", "2024-06-10")
	assert.Equal(t, []string{"t1", "v2", "v4", "v1"}, ids(events))
	assert.True(t, events[1].Locked)
	assert.Equal(t, "ALFA", events[2].ContactName)

	all := EventsForDay(contacts, timeOff, "TODOS", "2024-06-10")
	assert.Equal(t, []string{"t1", "t2", "v5", "v2", "v4", "v1"}, ids(all))
}

func TestEventsForDay_TimeOffInclusive(t *testing.T) {
	contacts, timeOff := fixture()

	for day, want := range map[string]bool{
		"2024-06-08": false,
		"2024-06-09": true,
		"2024-06-10": true,
		"2024-06-11": true,
		"2024-06-12": false,
	} {
		events := EventsForDay(contacts, timeOff, "LUIS", day)
		found := false
		for _, e := range events {
			if e.ID == "t1" {
				found = true
			}
		}
		assert.Equal(t, want, found, day)
	}
}

func TestProject_IsPure(t *testing.T) {
	contacts, timeOff := fixture()
	snapshot := make([]models.Contact, len(contacts))
	for i, c := range contacts {
		snapshot[i] = c.Clone()
	}

	first := Project(contacts, timeOff, "", "2024-06-01", "2024-06-30")
	second := Project(contacts, timeOff, "", "2024-06-01", "2024-06-30")

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, contacts)
	assert.Empty(t, Project(contacts, timeOff, "", "2024-06-30", "2024-06-01"))
}

func TestMonthGrid(t *testing.T) {
	// June 2024 starts on a Saturday.
	grid := MonthGrid(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), time.Monday)
	require.Len(t, grid, 5+30)
	assert.Equal(t, []string{"", "", "", "", ""}, grid[:5])
	assert.Equal(t, "2024-06-01", grid[5])
	assert.Equal(t, "2024-06-30", grid[len(grid)-1])

	sunday := MonthGrid(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), time.Sunday)
	assert.Equal(t, "2024-06-01", sunday[6])
}

func TestWeekDays(t *testing.T) {
	days := WeekDays(time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), time.Monday)
	assert.Equal(t, []string{
		"2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13", "2024-06-14", "2024-06-15", "2024-06-16",
	}, days)

	// Sunday anchor belongs to the week that started the previous Monday.
	days = WeekDays(time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), time.Monday)
	assert.Equal(t, "2024-06-10", days[0])
}

func TestDaySlots(t *testing.T) {
	slots := DaySlots("08:00", "20:00")
	require.Len(t, slots, 25)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "08:30", slots[1])
	assert.Equal(t, "20:00", slots[24])
}

func TestShift(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-01", models.FormatDate(Shift(ViewMonth, jan31, 1)))
	assert.Equal(t, "2023-12-01", models.FormatDate(Shift(ViewMonth, jan31, -1)))
	assert.Equal(t, "2024-02-07", models.FormatDate(Shift(ViewWeek, jan31, 1)))
	assert.Equal(t, "2024-01-30", models.FormatDate(Shift(ViewDay, jan31, -1)))
}

func TestEngine_Views(t *testing.T) {
	e := newTestEngine()
	contacts, timeOff := fixture()
	anchor := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	day := e.Day(contacts, timeOff, "LUIS", anchor)
	assert.Equal(t, "2024-06-10", day.Date)
	assert.Equal(t, []string{"t1"}, ids(day.AllDay))
	require.Len(t, day.Slots, 25)
	assert.Equal(t, []string{"v2"}, ids(day.Slots[2].Events))
	assert.Equal(t, []string{"v4", "v1"}, ids(day.Slots[8].Events))
	assert.Equal(t, "2024-06-09", day.Prev)

	week := e.Week(contacts, timeOff, "LUIS", anchor)
	assert.Equal(t, "2024-06-10", week.Start)
	assert.Equal(t, "2024-06-16", week.End)
	assert.Equal(t, []string{"t1", "v3"}, ids(week.Days[1].Events))
	assert.Empty(t, week.Days[2].Events)

	month := e.Month(contacts, timeOff, "LUIS", anchor)
	assert.Equal(t, "2024-06", month.Month)
	assert.Equal(t, 5, month.Leading)
	assert.True(t, month.Cells[0].Blank)
	// t1 starts on the 9th (cell 5+8) and is projected on each of its days.
	assert.Equal(t, []string{"t1"}, ids(month.Cells[13].Events))
	assert.Equal(t, "2024-07-01", month.Next)
}

func TestDragDrop(t *testing.T) {
	e := newTestEngine()
	contacts, timeOff := fixture()

	_, err := BeginDrag(contacts, timeOff, EventRef{Kind: KindVisit, ID: "v2", ContactID: "c1"})
	assert.ErrorIs(t, err, ErrLocked)

	ev, err := BeginDrag(contacts, timeOff, EventRef{Kind: KindVisit, ID: "v1", ContactID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "BETA", ev.ContactName)

	_, err = BeginDrag(contacts, timeOff, EventRef{Kind: KindVisit, ID: "v1", ContactID: "c2"})
	assert.ErrorIs(t, err, ErrNotFound)

	ch, err := e.Drop(contacts, timeOff, EventRef{Kind: KindVisit, ID: "v1", ContactID: "c1"}, "2024-06-20")
	require.NoError(t, err)
	require.NotNil(t, ch.Contact)
	assert.Equal(t, "2024-06-20", ch.Contact.Visits[0].Date)
	assert.Equal(t, "12:00", ch.Contact.Visits[0].Time)
	assert.Equal(t, "2024-06-10", contacts[0].Visits[0].Date)

	ch, err = e.Drop(contacts, timeOff, EventRef{Kind: KindTimeOff, ID: "t1"}, "2024-06-20")
	require.NoError(t, err)
	require.NotNil(t, ch.TimeOff)
	assert.Equal(t, "2024-06-20", ch.TimeOff.StartDate)
	assert.Equal(t, "2024-06-20", ch.TimeOff.EndDate)

	// Dropping an appointment elsewhere leaves everything as it was.
	_, err = e.Drop(contacts, timeOff, EventRef{Kind: KindVisit, ID: "v2", ContactID: "c1"}, "2024-06-13")
	assert.ErrorIs(t, err, ErrLocked)
	assert.Equal(t, "2024-06-10", contacts[0].Visits[1].Date)
}

func TestTrash(t *testing.T) {
	e := newTestEngine()
	contacts, timeOff := fixture()

	_, err := e.Trash(contacts, timeOff, EventRef{Kind: KindVisit, ID: "v2", ContactID: "c1"}, true)
	assert.ErrorIs(t, err, ErrLocked)

	_, err = e.Trash(contacts, timeOff, EventRef{Kind: KindVisit, ID: "v2", ContactID: "c1"}, false)
	assert.ErrorIs(t, err, ErrLocked, "lock is reported before confirmation")

	_, err = e.Trash(contacts, timeOff, EventRef{Kind: KindVisit, ID: "v1", ContactID: "c1"}, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	ch, err := e.Trash(contacts, timeOff, EventRef{Kind: KindVisit, ID: "v1", ContactID: "c1"}, true)
	require.NoError(t, err)
	assert.Len(t, ch.Contact.Visits, 2)

	ch, err = e.Trash(contacts, timeOff, EventRef{Kind: KindTimeOff, ID: "t2"}, true)
	require.NoError(t, err)
	assert.Equal(t, "t2", ch.RemovedTimeOff)
}

func TestProjectionCache(t *testing.T) {
	c, err := NewProjectionCache(4, zap.NewNop())
	require.NoError(t, err)

	calls := 0
	compute := func() any { calls++; return calls }

	k1 := NewKey(1, ViewMonth, "todos", "2024-06-01")
	assert.Equal(t, 1, c.GetOrCompute(k1, compute))
	assert.Equal(t, 1, c.GetOrCompute(NewKey(1, ViewMonth, "ALL", "2024-06-01"), compute))
	assert.Equal(t, 2, c.GetOrCompute(NewKey(2, ViewMonth, "", "2024-06-01"), compute))
	assert.Equal(t, 3, c.GetOrCompute(NewKey(2, ViewMonth, "luis", "2024-06-01"), compute))
	assert.Equal(t, 3, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}
