package report

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/blues/fundcrm/internal/model"
)

// DefaultTimezone 报告按太平洋时间的自然日划分
const DefaultTimezone = "America/Los_Angeles"

// LoadLocation 加载时区，名称为空时使用太平洋时间
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Period 报告覆盖的时间段，闭区间
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains 时间是否落在区间内
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// PeriodFor 日报覆盖 asOf 前一天，周报覆盖 asOf 之前的 7 天，均按 loc 的自然日计算
func PeriodFor(t model.ReportType, asOf time.Time, loc *time.Location) Period {
	local := asOf.In(loc)
	y, m, d := local.Date()

	days := 1
	if t == model.ReportWeekly {
		days = 7
	}
	return Period{
		Start: time.Date(y, m, d-days, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d-1, 23, 59, 59, int(999*time.Millisecond), loc),
	}
}

// startOfDay loc 下当天零点
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
