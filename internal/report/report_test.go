package report

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func pacific(t *testing.T) *time.Location {
	t.Helper()
	loc, err := LoadLocation("")
	require.NoError(t, err)
	return loc
}

func archiveTicket(t *testing.T, db *gorm.DB, title string, archivedAt time.Time, assignee *model.Person) *model.Ticket {
	t.Helper()
	at := archivedAt.UTC()
	ticket := &model.Ticket{
		Title:      title,
		Status:     model.TicketArchived,
		Priority:   model.PriorityMedium,
		ArchivedAt: &at,
	}
	if assignee != nil {
		ticket.AssignedTo = &assignee.ID
		ticket.CreatedBy = assignee.ID
	}
	require.NoError(t, db.Create(ticket).Error)
	return ticket
}

func loadSummary(t *testing.T, r model.TicketReport) Summary {
	t.Helper()
	var s Summary
	require.NoError(t, json.Unmarshal(r.Summary, &s))
	return s
}

func TestPeriodForHandlesDST(t *testing.T) {
	loc := pacific(t)

	// winter: PST is UTC-8
	p := PeriodFor(model.ReportDaily, time.Date(2024, 1, 16, 14, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), p.Start.UTC())
	assert.Equal(t, time.Date(2024, 1, 16, 7, 59, 59, int(999*time.Millisecond), time.UTC), p.End.UTC())

	// summer: PDT is UTC-7
	p = PeriodFor(model.ReportDaily, time.Date(2024, 7, 16, 14, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2024, 7, 15, 7, 0, 0, 0, time.UTC), p.Start.UTC())

	// the spring-forward day is 23 hours long
	p = PeriodFor(model.ReportDaily, time.Date(2024, 3, 11, 20, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, 23*time.Hour, p.End.Sub(p.Start).Round(time.Hour))

	// 01:00 UTC on the 16th is still the 15th in Pacific time
	p = PeriodFor(model.ReportDaily, time.Date(2024, 1, 16, 1, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, 14, p.Start.In(loc).Day())

	w := PeriodFor(model.ReportWeekly, time.Date(2024, 1, 21, 15, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2024, 1, 14, 0, 0, 0, 0, loc), w.Start)
	assert.Equal(t, 20, w.End.In(loc).Day())
}

func TestGenerateDailySkipsEmptyDay(t *testing.T) {
	db := testutil.NewDB(t)
	g := NewGenerator(db, &fakeLLM{}, pacific(t))

	res := g.Generate(context.Background(), model.ReportDaily, time.Date(2024, 1, 16, 14, 0, 0, 0, time.UTC))
	assert.False(t, res.Generated)
	assert.False(t, res.Saved)
	assert.Zero(t, res.TicketCount)
	assert.Empty(t, res.Error)

	var count int64
	require.NoError(t, db.Model(&model.TicketReport{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateWeeklyPersistsEmptyReport(t *testing.T) {
	db := testutil.NewDB(t)
	gen := &fakeLLM{}
	g := NewGenerator(db, gen, pacific(t))

	res := g.Generate(context.Background(), model.ReportWeekly, time.Date(2024, 1, 21, 15, 0, 0, 0, time.UTC))
	require.Empty(t, res.Error)
	assert.True(t, res.Saved)
	require.NotNil(t, res.ReportID)
	assert.Empty(t, gen.prompts)

	var saved model.TicketReport
	require.NoError(t, db.First(&saved, "id = ?", *res.ReportID).Error)
	assert.Equal(t, model.ReportWeekly, saved.ReportType)
	assert.Equal(t, emptyWeeklySummary, loadSummary(t, saved).Summary)
	assert.Equal(t, SourceCron, saved.GeneratedBy)
}

func TestGenerateUsesModelOutput(t *testing.T) {
	db := testutil.NewDB(t)
	loc := pacific(t)
	alex := testutil.CreatePerson(t, db, "Alex", model.RolePartner)
	app := testutil.CreateApplication(t, db, "Acme", time.Now())

	done := archiveTicket(t, db, "Send term sheet", time.Date(2024, 1, 15, 12, 0, 0, 0, loc), alex)
	require.NoError(t, db.Model(done).Update("application_id", app.ID).Error)
	require.NoError(t, db.Create(&model.TicketComment{TicketID: done.ID, AuthorID: alex.ID, Content: "Sent", IsFinalComment: true}).Error)
	require.NoError(t, db.Create(&model.TicketComment{TicketID: done.ID, AuthorID: alex.ID, Content: "thanks"}).Error)
	// outside the window
	archiveTicket(t, db, "Old", time.Date(2024, 1, 14, 12, 0, 0, 0, loc), alex)
	// open and unowned
	require.NoError(t, db.Create(&model.Ticket{Title: "Nobody's", Status: model.TicketOpen, Priority: model.PriorityLow}).Error)

	gen := &fakeLLM{reply: "```json\n{\"summary\":\"Alex sent the Acme term sheet.\",\"highlights\":[\"Acme\"]}\n```"}
	g := NewGenerator(db, gen, loc)

	res := g.Generate(context.Background(), model.ReportDaily, time.Date(2024, 1, 16, 9, 0, 0, 0, loc))
	require.Empty(t, res.Error)
	assert.True(t, res.Saved)
	assert.Equal(t, 1, res.TicketCount)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Send term sheet")
	assert.Contains(t, prompt, `"final_comment": "Sent"`)
	assert.Contains(t, prompt, `"company": "Acme"`)
	assert.Contains(t, prompt, `"assignee": "Alex"`)
	assert.Contains(t, prompt, "Nobody's")
	assert.NotContains(t, prompt, `"title": "Old"`)

	var saved model.TicketReport
	require.NoError(t, db.First(&saved, "id = ?", *res.ReportID).Error)
	s := loadSummary(t, saved)
	assert.Equal(t, "Alex sent the Acme term sheet.", s.Summary)
	assert.Equal(t, []string{"Acme"}, s.Highlights)
	assert.Equal(t, 1, s.TicketCount)
	assert.False(t, s.Fallback)
}

func TestGenerateFallsBack(t *testing.T) {
	cases := map[string]*fakeLLM{
		"bad json":     {reply: "Here is your report!"},
		"model error":  {err: errors.New("overloaded")},
		"no generator": nil,
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			db := testutil.NewDB(t)
			loc := pacific(t)
			archiveTicket(t, db, "a", time.Date(2024, 1, 15, 9, 0, 0, 0, loc), nil)
			archiveTicket(t, db, "b", time.Date(2024, 1, 15, 17, 0, 0, 0, loc), nil)

			g := NewGenerator(db, nil, loc)
			if gen != nil {
				g = NewGenerator(db, gen, loc)
			}
			res := g.Generate(context.Background(), model.ReportDaily, time.Date(2024, 1, 16, 9, 0, 0, 0, loc))
			require.Empty(t, res.Error)
			assert.True(t, res.Saved)

			var saved model.TicketReport
			require.NoError(t, db.First(&saved, "id = ?", *res.ReportID).Error)
			s := loadSummary(t, saved)
			assert.True(t, s.Fallback)
			assert.Equal(t, 2, s.TicketCount)
			assert.Equal(t, "2 tickets were completed yesterday.", s.Summary)
			assert.NotNil(t, s.ByPartner)
			assert.Empty(t, s.ByPartner)
		})
	}
}

func TestGenerateReportsErrorsInResult(t *testing.T) {
	db := testutil.NewDB(t)
	g := NewGenerator(db, nil, pacific(t))

	res := g.Generate(context.Background(), "monthly", time.Now())
	assert.NotEmpty(t, res.Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	res = g.Generate(context.Background(), model.ReportDaily, time.Now())
	assert.NotEmpty(t, res.Error)
	assert.False(t, res.Saved)
}

func TestBackfillIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	loc := pacific(t)
	// Wednesday Jan 10 through Tuesday Jan 16, with a gap on the 12th
	for _, day := range []int{10, 11, 13, 15} {
		archiveTicket(t, db, "t", time.Date(2024, 1, day, 10, 0, 0, 0, loc), nil)
	}
	g := NewGenerator(db, nil, loc)
	now := time.Date(2024, 1, 17, 8, 0, 0, 0, loc)

	first, err := g.Backfill(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, first.Errors)
	assert.Equal(t, 7, first.DaysScanned)

	var daily, weekly int64
	require.NoError(t, db.Model(&model.TicketReport{}).Where("report_type = ?", model.ReportDaily).Count(&daily).Error)
	require.NoError(t, db.Model(&model.TicketReport{}).Where("report_type = ?", model.ReportWeekly).Count(&weekly).Error)
	assert.EqualValues(t, 4, daily)
	// Sunday Jan 14 covers Jan 7-13
	assert.EqualValues(t, 1, weekly)
	assert.Equal(t, 5, first.Saved())

	var backfilled int64
	require.NoError(t, db.Model(&model.TicketReport{}).Where("generated_by = ?", SourceBackfill).Count(&backfilled).Error)
	assert.EqualValues(t, 5, backfilled)

	second, err := g.Backfill(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, second.Saved())
	assert.Equal(t, 5, second.Skipped)

	var total int64
	require.NoError(t, db.Model(&model.TicketReport{}).Count(&total).Error)
	assert.EqualValues(t, 5, total)
}

func TestBackfillWithoutTickets(t *testing.T) {
	db := testutil.NewDB(t)
	g := NewGenerator(db, nil, pacific(t))

	res, err := g.Backfill(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, res.DaysScanned)
	assert.Empty(t, res.Results)
}

func TestBackfillDate(t *testing.T) {
	db := testutil.NewDB(t)
	loc := pacific(t)
	archiveTicket(t, db, "t", time.Date(2024, 1, 13, 10, 0, 0, 0, loc), nil)
	g := NewGenerator(db, nil, loc)

	// Saturday: the next day is Sunday, so the weekly is produced too
	res := g.BackfillDate(context.Background(), time.Date(2024, 1, 13, 0, 0, 0, 0, loc))
	assert.Equal(t, 2, res.Saved())

	res = g.BackfillDate(context.Background(), time.Date(2024, 1, 13, 0, 0, 0, 0, loc))
	assert.Zero(t, res.Saved())
	assert.Equal(t, 2, res.Skipped)
}

func TestCronAddsWeeklyOnSunday(t *testing.T) {
	db := testutil.NewDB(t)
	loc := pacific(t)
	g := NewGenerator(db, nil, loc)

	results := g.Cron(context.Background(), time.Date(2024, 1, 15, 6, 0, 0, 0, loc))
	assert.Len(t, results, 1)

	results = g.Cron(context.Background(), time.Date(2024, 1, 14, 6, 0, 0, 0, loc))
	require.Len(t, results, 2)
	assert.Equal(t, model.ReportWeekly, results[1].ReportType)
	assert.True(t, results[1].Saved)
}

func TestCronSkipsExistingReports(t *testing.T) {
	db := testutil.NewDB(t)
	loc := pacific(t)
	archiveTicket(t, db, "a", time.Date(2024, 1, 13, 10, 0, 0, 0, loc), nil)
	g := NewGenerator(db, nil, loc)
	sunday := time.Date(2024, 1, 14, 6, 0, 0, 0, loc)

	first := g.Cron(context.Background(), sunday)
	require.Len(t, first, 2)
	assert.True(t, first[0].Saved)
	assert.True(t, first[1].Saved)

	retry := g.Cron(context.Background(), sunday)
	require.Len(t, retry, 2)
	for _, res := range retry {
		assert.Empty(t, res.Error)
		assert.False(t, res.Saved)
		assert.True(t, res.Existing)
	}

	var n int64
	require.NoError(t, db.Model(&model.TicketReport{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}
