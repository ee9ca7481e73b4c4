package model

import "testing"

func TestInferShiftType(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		area     string
		note     string
		expected string
	}{
		{"吧台区域", "18:00", "23:00", "Theke", "", ShiftTheke},
		{"备注中的bar", "18:00", "23:00", "", "Bar hinten", ShiftBar},
		{"厨房", "10:00", "15:00", "Küche", "", ShiftKueche},
		{"早班", "07:00", "15:00", "Service", "", ShiftFrueh},
		{"十点开始到晚上", "10:00", "21:00", "", "", ShiftFrueh},
		{"晚班", "17:00", "23:00", "", "", ShiftSpaet},
		{"结束晚", "12:00", "22:00", "", "", ShiftSpaet},
		{"通班", "11:00", "20:30", "", "", ShiftDoppel},
		{"中间班", "12:00", "18:00", "", "", ShiftNormal},
		{"时间无效", "xx", "18:00", "", "", ShiftNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferShiftType(tt.start, tt.end, tt.area, tt.note); got != tt.expected {
				t.Errorf("InferShiftType() = %s, expected %s", got, tt.expected)
			}
		})
	}
}

func TestShiftDemand_OpenSlots(t *testing.T) {
	d := ShiftDemand{
		ShiftID:             "s1",
		Date:                "2024-03-09",
		Start:               "17:00",
		End:                 "23:00",
		Required:            3,
		AssignedEmployeeIDs: []string{"e1"},
		ApplicantIDs:        []string{"e2", "e3"},
	}

	slots := d.OpenSlots()
	if len(slots) != 2 {
		t.Fatalf("期望 2 个空缺, 实际 %d", len(slots))
	}
	for i, s := range slots {
		if s.SlotID != []string{"s1-open-1", "s1-open-2"}[i] {
			t.Errorf("slot_id = %s", s.SlotID)
		}
		if s.ShiftType != ShiftSpaet {
			t.Errorf("shift_type = %s, expected spaet", s.ShiftType)
		}
		if len(s.ApplicantIDs) != 2 {
			t.Errorf("每个空缺应共享申请人列表")
		}
	}

	// 修改一个 slot 的申请人不影响其他 slot
	slots[0].ApplicantIDs[0] = "x"
	if slots[1].ApplicantIDs[0] != "e2" || d.ApplicantIDs[0] != "e2" {
		t.Error("申请人列表应被复制")
	}

	full := ShiftDemand{ShiftID: "s2", Required: 1, AssignedEmployeeIDs: []string{"a", "b"}}
	if full.OpenSlots() != nil {
		t.Error("已满的班次不应产生空缺")
	}
}

func TestSlot_Helpers(t *testing.T) {
	s := Slot{SlotID: "x", Date: "2024-03-09", Start: "18:00", End: "00:00", ApplicantIDs: []string{"e1"}}
	if s.Hours() != 6 {
		t.Errorf("Hours = %v", s.Hours())
	}
	if s.EndMinute() != MinutesPerDay {
		t.Errorf("EndMinute = %d", s.EndMinute())
	}
	if !s.HasApplicant("e1") || s.HasApplicant("e2") {
		t.Error("HasApplicant 结果错误")
	}
	if s.TypeKey() != ShiftSpaet {
		t.Errorf("TypeKey = %s", s.TypeKey())
	}
}
