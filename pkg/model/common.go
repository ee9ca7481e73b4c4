// Package model 定义分配引擎的输入快照、配置和输出方案
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout 日期格式 YYYY-MM-DD
	DateLayout = "2006-01-02"
	// MinutesPerDay 一天的分钟数
	MinutesPerDay = 24 * 60
)

// DateRange 日期范围（闭区间）
type DateRange struct {
	From string `json:"from" yaml:"from" validate:"required,isodate"`
	To   string `json:"to" yaml:"to" validate:"required,isodate"`
}

// Contains 检查日期是否在范围内
func (r DateRange) Contains(date string) bool {
	return date >= r.From && date <= r.To
}

// Validate 验证日期范围
func (r DateRange) Validate() error {
	if _, err := ParseDate(r.From); err != nil {
		return fmt.Errorf("起始日期 %q 格式错误", r.From)
	}
	if _, err := ParseDate(r.To); err != nil {
		return fmt.Errorf("结束日期 %q 格式错误", r.To)
	}
	if r.To < r.From {
		return fmt.Errorf("结束日期 %s 早于起始日期 %s", r.To, r.From)
	}
	return nil
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// AddDays 日期加减天数, 输入无效时原样返回
func AddDays(date string, days int) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format(DateLayout)
}

// Weekday 返回日期的星期
func Weekday(date string) time.Weekday {
	t, err := ParseDate(date)
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}

// IsWeekend 周六或周日
func IsWeekend(date string) bool {
	wd := Weekday(date)
	return wd == time.Saturday || wd == time.Sunday
}

// MonthKey 返回 YYYY-MM
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// WeekKey 返回该日期所在 ISO 周的周一日期
func WeekKey(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format(DateLayout)
}

// ParseClock 解析 HH:MM 为当天分钟数, 允许 24:00
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("时间 %q 格式错误", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("时间 %q 小时无效", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("时间 %q 分钟无效", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("时间 %q 超出范围", s)
	}
	return h*60 + m, nil
}

// ClockMinutes 解析失败时返回 0
func ClockMinutes(s string) int {
	m, _ := ParseClock(s)
	return m
}

// ClockSpan 返回起止分钟数, 跨夜时结束时间加 24 小时
func ClockSpan(start, end string) (int, int) {
	s, e := ClockMinutes(start), ClockMinutes(end)
	if e <= s {
		e += MinutesPerDay
	}
	return s, e
}

// ShiftHours 计算时长（小时）, 跨夜班次按次日结束处理
func ShiftHours(start, end string) float64 {
	if _, err := ParseClock(start); err != nil {
		return 0
	}
	if _, err := ParseClock(end); err != nil {
		return 0
	}
	s, e := ClockSpan(start, end)
	return float64(e-s) / 60
}

// ClockOverlap 同一天两个时段是否重叠
func ClockOverlap(startA, endA, startB, endB string) bool {
	as, ae := ClockSpan(startA, endA)
	bs, be := ClockSpan(startB, endB)
	return as < be && bs < ae
}

// Round2 保留两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 保留一位小数
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Float64Ptr 返回指针
func Float64Ptr(v float64) *float64 {
	return &v
}

// IntPtr 返回指针
func IntPtr(v int) *int {
	return &v
}
