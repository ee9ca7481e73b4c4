package model

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/paiban/allocator/pkg/errors"
)

// Snapshot 某一营业点在某一时间范围内的完整输入数据, 引擎只读
type Snapshot struct {
	SnapshotID     string          `json:"snapshot_id"`
	Venue          string          `json:"venue,omitempty"`
	GeneratedAt    string          `json:"generated_at,omitempty"`
	Range          DateRange       `json:"range" validate:"-"`
	Employees      []Employee      `json:"employees" validate:"dive"`
	AssignedShifts []AssignedShift `json:"assigned_shifts" validate:"dive"`
	OpenSlots      []Slot          `json:"open_shifts" validate:"dive"`
	Absences       []Absence       `json:"absences" validate:"dive"`
}

// SlotsInRange 范围内的空缺班次, 保持输入顺序
func (s *Snapshot) SlotsInRange(r DateRange) []Slot {
	out := make([]Slot, 0, len(s.OpenSlots))
	for _, slot := range s.OpenSlots {
		if r.Contains(slot.Date) {
			out = append(out, slot)
		}
	}
	return out
}

var (
	validateOnce sync.Once
	structValid  *validator.Validate
)

// Validator 返回共享的结构体验证器（注册了 clock 和 isodate 标签）
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			_, err := ParseClock(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := ParseDate(fl.Field().String())
			return err == nil
		})
		structValid = v
	})
	return structValid
}

// Validate 在分配开始前检查快照, 有任何问题都直接拒绝
func (s *Snapshot) Validate() error {
	var ve errors.ValidationErrors

	if err := Validator().Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stderrors.As(err, &fieldErrs) {
			return errors.Wrap(err, errors.CodeInvalidSnapshot, "快照验证失败")
		}
		for _, fe := range fieldErrs {
			ve.Add(fe.Namespace(), describeTag(fe))
		}
	}

	employees := make(map[string]bool, len(s.Employees))
	for i, emp := range s.Employees {
		if employees[emp.ID] {
			ve.Addf(fmt.Sprintf("employees[%d].employee_id", i), "员工ID %q 重复", emp.ID)
		}
		employees[emp.ID] = true
	}

	slots := make(map[string]bool, len(s.OpenSlots))
	for i, slot := range s.OpenSlots {
		field := fmt.Sprintf("open_shifts[%d]", i)
		if slots[slot.SlotID] {
			ve.Addf(field+".slot_id", "班次ID %q 重复", slot.SlotID)
		}
		slots[slot.SlotID] = true

		start, errS := ParseClock(slot.Start)
		end, errE := ParseClock(slot.End)
		// 00:00 作为结束时间表示午夜
		if errS == nil && errE == nil && end != 0 && end <= start {
			ve.Addf(field+".end", "结束时间 %s 不晚于开始时间 %s", slot.End, slot.Start)
		}
		for _, id := range slot.ApplicantIDs {
			if !employees[id] {
				ve.Addf(field+".applicant_employee_ids", "申请人 %q 不在员工列表中", id)
			}
		}
	}

	for i, shift := range s.AssignedShifts {
		if shift.EmployeeID != "" && !employees[shift.EmployeeID] {
			ve.Addf(fmt.Sprintf("assigned_shifts[%d].employee_id", i), "员工 %q 不在员工列表中", shift.EmployeeID)
		}
	}

	for i, absence := range s.Absences {
		field := fmt.Sprintf("absences[%d]", i)
		if absence.EmployeeID != "" && !employees[absence.EmployeeID] {
			ve.Addf(field+".employee_id", "员工 %q 不在员工列表中", absence.EmployeeID)
		}
		if absence.EndDate < absence.StartDate {
			ve.Addf(field+".end_date", "结束日期 %s 早于开始日期 %s", absence.EndDate, absence.StartDate)
		}
	}

	if ve.HasErrors() {
		return ve.ToAppErrorWithCode(errors.CodeInvalidSnapshot, fmt.Sprintf("快照 '%s' 无效", s.SnapshotID))
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "clock":
		return fmt.Sprintf("时间 %q 不是 HH:MM 格式", fe.Value())
	case "isodate":
		return fmt.Sprintf("日期 %q 不是 YYYY-MM-DD 格式", fe.Value())
	case "gte":
		return "不能为负数"
	default:
		return fmt.Sprintf("未通过 %s 校验", fe.Tag())
	}
}
