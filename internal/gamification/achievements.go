package gamification

import (
	"sort"
	"time"
)

// Achievement 成就
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var (
	firstTicket    = Achievement{ID: "first_ticket", Name: "First Ticket", Description: "Closed your first ticket", Icon: "🎯"}
	hatTrick       = Achievement{ID: "hat_trick", Name: "Hat Trick", Description: "Closed 3+ tickets in a single day", Icon: "🎩"}
	speedDemon     = Achievement{ID: "speed_demon", Name: "Speed Demon", Description: "Closed a ticket within 1 hour of creation", Icon: "⚡"}
	perfectionist  = Achievement{ID: "perfectionist", Name: "Perfectionist", Description: "100% on-time across 10+ tickets with due dates", Icon: "💎"}
	consistent     = Achievement{ID: "consistent", Name: "Consistent", Description: "Closed tickets 4 weeks in a row", Icon: "📅"}
	heavyLifter    = Achievement{ID: "heavy_lifter", Name: "Heavy Lifter", Description: "Closed 10+ high-priority tickets", Icon: "🏋️"}
	centurion      = Achievement{ID: "centurion", Name: "Centurion", Description: "Closed 100 tickets", Icon: "💯"}
	onFire         = Achievement{ID: "on_fire", Name: "On Fire", Description: "5+ day completion streak", Icon: "🔥"}
	weeklyChampion = Achievement{ID: "weekly_champion", Name: "Weekly Champion", Description: "Most points this week", Icon: "🏆"}
)

// Achievements 按合伙人全部历史判定成就（周冠军另由 Build 在周窗口下授予）
func Achievements(history []Completion, now time.Time, loc *time.Location) []Achievement {
	earned := []Achievement{}
	if len(history) == 0 {
		return earned
	}
	earned = append(earned, firstTicket)

	perDay := make(map[string]int)
	var (
		fast    bool
		high    int
		withDue int
		onTime  int
	)
	for _, c := range history {
		perDay[dayKey(c.ArchivedAt, loc)]++
		if c.ArchivedAt.Sub(c.CreatedAt) <= time.Hour {
			fast = true
		}
		if c.Priority == "high" {
			high++
		}
		if c.DueDate != nil {
			withDue++
			if closedOnTime(c, loc) {
				onTime++
			}
		}
	}

	for _, n := range perDay {
		if n >= 3 {
			earned = append(earned, hatTrick)
			break
		}
	}
	if fast {
		earned = append(earned, speedDemon)
	}
	if withDue >= 10 && onTime == withDue {
		earned = append(earned, perfectionist)
	}
	if longestWeekRun(history, loc) >= 4 {
		earned = append(earned, consistent)
	}
	if high >= 10 {
		earned = append(earned, heavyLifter)
	}
	if len(history) >= 100 {
		earned = append(earned, centurion)
	}
	if CurrentStreak(history, now, loc) >= 5 {
		earned = append(earned, onFire)
	}
	return earned
}

// weekStart 所在周的周一
func weekStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	return time.Date(local.Year(), local.Month(), local.Day()-offset, 12, 0, 0, 0, loc)
}

// longestWeekRun 连续有完成记录的周数的最大值
func longestWeekRun(history []Completion, loc *time.Location) int {
	seen := make(map[string]time.Time)
	for _, c := range history {
		ws := weekStart(c.ArchivedAt, loc)
		seen[ws.Format("2006-01-02")] = ws
	}

	weeks := make([]time.Time, 0, len(seen))
	for _, ws := range seen {
		weeks = append(weeks, ws)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	best, run := 0, 0
	for i, ws := range weeks {
		if i > 0 && weeks[i-1].AddDate(0, 0, 7).Format("2006-01-02") == ws.Format("2006-01-02") {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
