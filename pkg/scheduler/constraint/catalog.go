package constraint

// Definition 约束目录条目
type Definition struct {
	Code        Code     `json:"code"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
}

var library = []Definition{
	{CodeNoAdditionalShifts, "不再加班", CategoryObligatory, "员工规则设置了 no_additional_shifts, 不再分配任何班次"},
	{CodeAbsence, "缺勤", CategoryObligatory, "班次日期落在员工的缺勤区间内"},
	{CodeSameDay, "同日已有班次", CategoryObligatory, "员工当天已有排班（原有或本次分配）"},
	{CodeOverlapSameDay, "同日时段重叠", CategoryObligatory, "与当天已有班次时间重叠"},
	{CodeDailyHours, "日工时超过10小时", CategoryObligatory, "当天工时加上该班次超过 10 小时"},
	{CodeWeeklyHoursLimit, "周工时上限", CategoryObligatory, "ISO 周内工时加上该班次超过周上限"},
	{CodeRest, "休息不足11小时", CategoryObligatory, "与前一天或后一天班次之间的休息少于 11 小时"},
	{CodeConsecutiveDays, "连续工作天数", CategoryObligatory, "连续工作天数超过策略中的 max_consecutive_days"},
	{CodeMaxSalaryLimit, "工资上限", CategoryObligatory, "本月预计工资超过员工工资上限"},
	{CodeMonthlyHoursLimit, "月工时上限", CategorySoft, "本月工时加上该班次超过月上限"},
	{CodeMaxAdditionalMonthlyHours, "本次新增月工时上限", CategorySoft, "本次计算新增的月工时超过规则上限"},
	{CodeMaxWeeklyHours, "本次新增周工时上限", CategorySoft, "本次计算新增的周工时超过规则 max_weekly_hours"},
	{CodeNoWeekend, "不上周末", CategorySoft, "备注要求不上周末, 班次在周末"},
	{CodeOnlyWeekend, "只上周末", CategorySoft, "备注要求只上周末, 班次在工作日"},
	{CodeStartsTooEarly, "开始过早", CategorySoft, "班次开始早于备注中的最早时间"},
	{CodeEndsTooLate, "结束过晚", CategorySoft, "班次结束晚于备注中的最晚时间"},
}

// Library 返回全部约束定义, 顺序固定
func Library() []Definition {
	out := make([]Definition, len(library))
	copy(out, library)
	return out
}

// Describe 查找约束定义
func Describe(code Code) (Definition, bool) {
	for _, d := range library {
		if d.Code == code {
			return d, true
		}
	}
	return Definition{}, false
}

// CategoryOf 约束类别, 未知编码按 obligatory 处理
func CategoryOf(code Code) Category {
	if d, ok := Describe(code); ok {
		return d.Category
	}
	return CategoryObligatory
}

// AllCodes 全部约束编码
func AllCodes() []Code {
	codes := make([]Code, len(library))
	for i, d := range library {
		codes[i] = d.Code
	}
	return codes
}
