package model

import (
	"fmt"
	"strings"
)

// 班次类型
const (
	ShiftFrueh  = "frueh"  // 早班
	ShiftSpaet  = "spaet"  // 晚班
	ShiftDoppel = "doppel" // 通班
	ShiftNormal = "normal" // 中间班
	ShiftTheke  = "theke"  // 吧台
	ShiftBar    = "bar"
	ShiftKueche = "kueche" // 厨房
)

// Slot 待分配的空缺班次, 一个 Slot 只需要一个人
type Slot struct {
	SlotID       string   `json:"slot_id" validate:"required"`
	ShiftID      string   `json:"shift_id,omitempty"`
	Date         string   `json:"date" validate:"required,isodate"`
	Start        string   `json:"start" validate:"required,clock"`
	End          string   `json:"end" validate:"required,clock"`
	ShiftType    string   `json:"shift_type,omitempty"`
	WorkingArea  string   `json:"working_area,omitempty"`
	Note         string   `json:"note,omitempty"`
	ApplicantIDs []string `json:"applicant_employee_ids,omitempty"`
}

// StartMinute 开始分钟数
func (s *Slot) StartMinute() int {
	return ClockMinutes(s.Start)
}

// EndMinute 结束分钟数, 00:00 视为 24:00
func (s *Slot) EndMinute() int {
	if m := ClockMinutes(s.End); m > 0 {
		return m
	}
	return MinutesPerDay
}

// Hours 时长
func (s *Slot) Hours() float64 {
	return ShiftHours(s.Start, s.End)
}

// HasApplicants 是否有人申请
func (s *Slot) HasApplicants() bool {
	return len(s.ApplicantIDs) > 0
}

// HasApplicant 员工是否申请了该班次
func (s *Slot) HasApplicant(employeeID string) bool {
	for _, id := range s.ApplicantIDs {
		if id == employeeID {
			return true
		}
	}
	return false
}

// TypeKey 班次类型, 未给出时推断
func (s *Slot) TypeKey() string {
	if s.ShiftType != "" {
		return CanonicalName(s.ShiftType)
	}
	return InferShiftType(s.Start, s.End, s.WorkingArea, s.Note)
}

// AssignedShift 快照中已存在的排班
type AssignedShift struct {
	ShiftID     string `json:"shift_id,omitempty"`
	EmployeeID  string `json:"employee_id" validate:"required"`
	Date        string `json:"date" validate:"required,isodate"`
	Start       string `json:"start" validate:"required,clock"`
	End         string `json:"end" validate:"required,clock"`
	ShiftType   string `json:"shift_type,omitempty"`
	WorkingArea string `json:"working_area,omitempty"`
}

// Hours 时长, 可跨夜
func (a *AssignedShift) Hours() float64 {
	return ShiftHours(a.Start, a.End)
}

// Absence 缺勤（休假、病假等）
type Absence struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required,isodate"`
	EndDate    string `json:"end_date" validate:"required,isodate"`
	Type       string `json:"type,omitempty"`
	Note       string `json:"note,omitempty"`
}

// Covers 日期是否在缺勤范围内
func (a *Absence) Covers(date string) bool {
	return date >= a.StartDate && date <= a.EndDate
}

// ShiftDemand 班次需求, 由上游按需求人数和已排人数拆分为 Slot
type ShiftDemand struct {
	ShiftID             string   `json:"shift_id"`
	Date                string   `json:"date"`
	Start               string   `json:"start"`
	End                 string   `json:"end"`
	ShiftType           string   `json:"shift_type,omitempty"`
	WorkingArea         string   `json:"working_area,omitempty"`
	Note                string   `json:"note,omitempty"`
	Required            int      `json:"required"`
	AssignedEmployeeIDs []string `json:"assigned_employee_ids,omitempty"`
	ApplicantIDs        []string `json:"applicant_employee_ids,omitempty"`
}

// OpenCount 尚缺人数
func (d *ShiftDemand) OpenCount() int {
	open := d.Required - len(d.AssignedEmployeeIDs)
	if open < 0 {
		return 0
	}
	return open
}

// OpenSlots 按缺口拆分, 每个 Slot 共享同一申请人列表
func (d *ShiftDemand) OpenSlots() []Slot {
	open := d.OpenCount()
	if open == 0 {
		return nil
	}
	shiftType := d.ShiftType
	if shiftType == "" {
		shiftType = InferShiftType(d.Start, d.End, d.WorkingArea, d.Note)
	}
	slots := make([]Slot, 0, open)
	for i := 1; i <= open; i++ {
		slots = append(slots, Slot{
			SlotID:       fmt.Sprintf("%s-open-%d", d.ShiftID, i),
			ShiftID:      d.ShiftID,
			Date:         d.Date,
			Start:        d.Start,
			End:          d.End,
			ShiftType:    shiftType,
			WorkingArea:  d.WorkingArea,
			Note:         d.Note,
			ApplicantIDs: append([]string(nil), d.ApplicantIDs...),
		})
	}
	return slots
}

// InferShiftType 根据工作区域、备注和时间推断班次类型
func InferShiftType(start, end, area, note string) string {
	text := NormalizeText(area + " " + note)
	switch {
	case strings.Contains(text, "theke"):
		return ShiftTheke
	case strings.Contains(text, "bar"):
		return ShiftBar
	case strings.Contains(text, "kuche"), strings.Contains(text, "kueche"):
		return ShiftKueche
	}

	s, errS := ParseClock(start)
	e, errE := ParseClock(end)
	if errS != nil || errE != nil {
		return ShiftNormal
	}
	switch {
	case s < 11*60:
		return ShiftFrueh
	case s >= 16*60 || e >= 22*60:
		return ShiftSpaet
	case s <= 11*60 && e >= 20*60:
		return ShiftDoppel
	default:
		return ShiftNormal
	}
}
