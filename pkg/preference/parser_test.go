package preference

import (
	"reflect"
	"testing"

	"github.com/paiban/allocator/pkg/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		note     string
		expected Preferences
	}{
		{"空备注", "", Preferences{}},
		{"无关文本", "Hat Führerschein", Preferences{}},
		{"不上周末", "Kein Wochenende bitte", Preferences{NoWeekend: true}},
		{"不上周末_nicht", "nicht   Wochenende", Preferences{NoWeekend: true}},
		{"只上周末", "NUR Wochenende", Preferences{OnlyWeekend: true}},
		{"偏好早班_变音", "lieber früh", Preferences{PreferType: model.ShiftFrueh}},
		{"偏好早班_ue", "bevorzugt frueh", Preferences{PreferType: model.ShiftFrueh}},
		{"偏好晚班", "Lieber spät", Preferences{PreferType: model.ShiftSpaet}},
		{"早晚都写取晚班", "lieber früh, bevorzugt spät", Preferences{PreferType: model.ShiftSpaet}},
		{"每周最多班次", "max 3 Schichten pro Woche", Preferences{MaxShiftsPerWeek: model.IntPtr(3)}},
		{"最早时间", "erst ab 14 Uhr", Preferences{EarliestMinute: model.IntPtr(840)}},
		{"最晚时间", "nur bis 22uhr", Preferences{LatestMinute: model.IntPtr(1320)}},
		{"小时无效", "bis 99 uhr", Preferences{}},
		{"小时无效_25", "ab 25 Uhr", Preferences{}},
		{"二十四点", "bis 24 uhr", Preferences{LatestMinute: model.IntPtr(1440)}},
		{
			"组合",
			"Kein Wochenende, ab 10 Uhr, bis 18 Uhr",
			Preferences{NoWeekend: true, EarliestMinute: model.IntPtr(600), LatestMinute: model.IntPtr(1080)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.note)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Parse(%q) = %+v, expected %+v", tt.note, got, tt.expected)
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	note := "Kein Wochenende, lieber früh, ab 9 Uhr"
	first := Parse(note)
	for i := 0; i < 5; i++ {
		if got := Parse(note); !reflect.DeepEqual(got, first) {
			t.Fatalf("第 %d 次解析结果不同: %+v vs %+v", i, got, first)
		}
	}
	if first.IsZero() {
		t.Error("应解析出偏好")
	}
	if !Parse("").IsZero() {
		t.Error("空文本应为零值")
	}
}

func TestRules_Table(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range Rules {
		if r.Name == "" || r.Pattern == nil || r.Apply == nil {
			t.Errorf("规则定义不完整: %+v", r)
		}
		if seen[r.Name] {
			t.Errorf("规则名重复: %s", r.Name)
		}
		seen[r.Name] = true
	}

	got := Matched("kein Wochenende, max 2 Schichten")
	if !reflect.DeepEqual(got, []string{"no_weekend", "max_shifts_per_week"}) {
		t.Errorf("Matched = %v", got)
	}
}

func TestShiftLabels(t *testing.T) {
	tests := []struct {
		name     string
		typ      string
		start    int
		end      int
		expected []string
	}{
		{"早上开始", "", 7 * 60, 15 * 60, []string{"frueh"}},
		{"下午开始", "", 16 * 60, 23 * 60, []string{"spaet"}},
		{"晚上结束", "", 12 * 60, 21 * 60, []string{"spaet"}},
		{"通班两类都有", "doppel", 10 * 60, 22 * 60, []string{"frueh", "spaet"}},
		{"类型名", "Spätdienst", 12 * 60, 18 * 60, []string{"spaet"}},
		{"中间班", "normal", 12 * 60, 18 * 60, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShiftLabels(tt.typ, tt.start, tt.end)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ShiftLabels() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestPreferences_PrefersSlot(t *testing.T) {
	p := Preferences{PreferType: model.ShiftFrueh}
	if !p.PrefersSlot([]string{"frueh", "spaet"}) {
		t.Error("应匹配早班")
	}
	if p.PrefersSlot([]string{"spaet"}) {
		t.Error("不应匹配晚班")
	}
	if (Preferences{}).PrefersSlot([]string{"frueh"}) {
		t.Error("无偏好时不应匹配")
	}
}
