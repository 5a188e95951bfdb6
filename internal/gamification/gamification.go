// Package gamification 根据已归档工单计算积分、准时率、连续天数与成就。
// 所有函数都是纯计算，不访问数据库。
package gamification

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Window 排行榜时间窗口
type Window string

const (
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowAll   Window = "all"
)

// Valid 是否为合法窗口
func (w Window) Valid() bool {
	switch w {
	case WindowWeek, WindowMonth, WindowAll:
		return true
	}
	return false
}

// allTimeFloor "全部" 窗口的起点
var allTimeFloor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Start 窗口起点：week 为 7 天前，month 为 30 天前，all 为 2000 年
func (w Window) Start(now time.Time) time.Time {
	switch w {
	case WindowWeek:
		return now.AddDate(0, 0, -7)
	case WindowMonth:
		return now.AddDate(0, 0, -30)
	default:
		return allTimeFloor
	}
}

// Completion 一张已归档工单
type Completion struct {
	TicketID   uuid.UUID
	AssigneeID uuid.UUID
	Priority   string
	CreatedAt  time.Time
	ArchivedAt time.Time
	DueDate    *time.Time
}

// Partner 参与排名的合伙人
type Partner struct {
	ID   uuid.UUID
	Name string
}

// Stats 合伙人在窗口内的统计
type Stats struct {
	PartnerID     uuid.UUID     `json:"partner_id"`
	Name          string        `json:"name"`
	Rank          int           `json:"rank"`
	Points        int           `json:"points"`
	TicketsClosed int           `json:"tickets_closed"`
	High          int           `json:"high"`
	Medium        int           `json:"medium"`
	Low           int           `json:"low"`
	OnTimePercent int           `json:"on_time_percent"`
	AvgCloseTime  float64       `json:"avg_close_time"` // 天
	CurrentStreak int           `json:"current_streak"`
	Achievements  []Achievement `json:"achievements"`
}

// Leaderboard 排行榜
type Leaderboard struct {
	Window  Window    `json:"window"`
	Since   time.Time `json:"since"`
	Entries []Stats   `json:"entries"`
}

// PriorityPoints 单张工单的积分
func PriorityPoints(priority string) int {
	switch priority {
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	}
	return 0
}

// Build 计算排行榜，积分降序，同分按完成数、姓名、id 排序
func Build(completions []Completion, partners []Partner, window Window, now time.Time, loc *time.Location) *Leaderboard {
	if loc == nil {
		loc = time.UTC
	}
	since := window.Start(now)

	byPartner := make(map[uuid.UUID][]Completion, len(partners))
	for _, c := range completions {
		byPartner[c.AssigneeID] = append(byPartner[c.AssigneeID], c)
	}

	entries := make([]Stats, 0, len(partners))
	for _, p := range partners {
		history := byPartner[p.ID]
		stats := Compute(inWindow(history, since), now, loc)
		stats.PartnerID = p.ID
		stats.Name = p.Name
		stats.Achievements = Achievements(history, now, loc)
		entries = append(entries, stats)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.TicketsClosed != b.TicketsClosed {
			return a.TicketsClosed > b.TicketsClosed
		}
		if !strings.EqualFold(a.Name, b.Name) {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		return a.PartnerID.String() < b.PartnerID.String()
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	if window == WindowWeek && len(entries) > 0 && entries[0].Points > 0 {
		entries[0].Achievements = append(entries[0].Achievements, weeklyChampion)
	}

	return &Leaderboard{Window: window, Since: since, Entries: entries}
}

func inWindow(completions []Completion, since time.Time) []Completion {
	out := make([]Completion, 0, len(completions))
	for _, c := range completions {
		if !c.ArchivedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out
}

// Compute 统计一组已归档工单
func Compute(completions []Completion, now time.Time, loc *time.Location) Stats {
	var (
		stats     Stats
		withDue   int
		onTime    int
		closeDays float64
	)

	for _, c := range completions {
		switch c.Priority {
		case "high":
			stats.High++
		case "medium":
			stats.Medium++
		case "low":
			stats.Low++
		}
		stats.Points += PriorityPoints(c.Priority)

		if c.DueDate != nil {
			withDue++
			if closedOnTime(c, loc) {
				onTime++
			}
		}
		closeDays += c.ArchivedAt.Sub(c.CreatedAt).Hours() / 24
	}

	stats.TicketsClosed = len(completions)
	stats.OnTimePercent = 100
	if withDue > 0 {
		stats.OnTimePercent = int(math.Round(float64(onTime) / float64(withDue) * 100))
	}
	if len(completions) > 0 {
		stats.AvgCloseTime = math.Round(closeDays/float64(len(completions))*10) / 10
	}
	stats.CurrentStreak = CurrentStreak(completions, now, loc)
	return stats
}

// closedOnTime 截止日当天结束前归档即为准时
func closedOnTime(c Completion, loc *time.Location) bool {
	y, m, d := c.DueDate.Date()
	deadline := time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	return !c.ArchivedAt.After(deadline)
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// CurrentStreak 从今天往前连续有完成记录的天数，今天还没有完成时从昨天算起
func CurrentStreak(completions []Completion, now time.Time, loc *time.Location) int {
	if len(completions) == 0 {
		return 0
	}
	days := make(map[string]struct{}, len(completions))
	for _, c := range completions {
		days[dayKey(c.ArchivedAt, loc)] = struct{}{}
	}

	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)
	if _, ok := days[day.Format("2006-01-02")]; !ok {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := days[day.Format("2006-01-02")]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}
