package model

import (
	"testing"
)

func TestShiftHours(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected float64
	}{
		{"普通班次", "09:00", "17:00", 8},
		{"半小时", "10:00", "14:30", 4.5},
		{"跨夜", "22:00", "06:00", 8},
		{"午夜结束", "18:00", "00:00", 6},
		{"格式错误", "9h", "17:00", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShiftHours(tt.start, tt.end); got != tt.expected {
				t.Errorf("ShiftHours(%s, %s) = %v, expected %v", tt.start, tt.end, got, tt.expected)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		minutes int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"07:30", 450, false},
		{"24:00", 1440, false},
		{"18:00:00", 1080, false},
		{"24:30", 0, true},
		{"12:60", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.minutes {
				t.Errorf("ParseClock(%q) = %d, expected %d", tt.input, got, tt.minutes)
			}
		})
	}
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		date     string
		expected string
	}{
		{"2024-03-04", "2024-03-04"}, // 周一
		{"2024-03-09", "2024-03-04"}, // 周六
		{"2024-03-10", "2024-03-04"}, // 周日
		{"2024-03-11", "2024-03-11"},
		{"2024-01-01", "2024-01-01"},
		{"2023-01-01", "2022-12-26"}, // 跨年
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			if got := WeekKey(tt.date); got != tt.expected {
				t.Errorf("WeekKey(%s) = %s, expected %s", tt.date, got, tt.expected)
			}
		})
	}
}

func TestClockOverlap(t *testing.T) {
	tests := []struct {
		name     string
		a        [2]string
		b        [2]string
		expected bool
	}{
		{"完全分开", [2]string{"08:00", "12:00"}, [2]string{"13:00", "17:00"}, false},
		{"首尾相接", [2]string{"08:00", "12:00"}, [2]string{"12:00", "17:00"}, false},
		{"部分重叠", [2]string{"08:00", "12:00"}, [2]string{"11:00", "15:00"}, true},
		{"包含", [2]string{"08:00", "20:00"}, [2]string{"11:00", "15:00"}, true},
		{"跨夜重叠", [2]string{"22:00", "02:00"}, [2]string{"23:00", "23:30"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClockOverlap(tt.a[0], tt.a[1], tt.b[0], tt.b[1]); got != tt.expected {
				t.Errorf("ClockOverlap() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestDateRange_Validate(t *testing.T) {
	if err := (DateRange{From: "2024-03-01", To: "2024-03-31"}).Validate(); err != nil {
		t.Errorf("有效范围返回错误: %v", err)
	}
	if err := (DateRange{From: "2024-03-31", To: "2024-03-01"}).Validate(); err == nil {
		t.Error("倒置的范围应该返回错误")
	}
	if err := (DateRange{From: "2024/03/01", To: "2024-03-31"}).Validate(); err == nil {
		t.Error("格式错误应该返回错误")
	}
	r := DateRange{From: "2024-03-01", To: "2024-03-31"}
	if !r.Contains("2024-03-31") || r.Contains("2024-04-01") {
		t.Error("Contains 应包含两端")
	}
}

func TestIsWeekend(t *testing.T) {
	if !IsWeekend("2024-03-09") || !IsWeekend("2024-03-10") {
		t.Error("周六周日应为周末")
	}
	if IsWeekend("2024-03-08") {
		t.Error("周五不是周末")
	}
}
