package constraint

import (
	"github.com/shopspring/decimal"
)

// SalaryWarningRatio 预计工资超过上限的这个比例时评分扣分
const SalaryWarningRatio = 0.9

// ProjectedSalary 按月工时计算预计工资; 没有工资或上限时返回 false
func ProjectedSalary(cand *Candidate, monthHours float64) (decimal.Decimal, bool) {
	if !cand.Employee.HasSalaryCap() {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(monthHours).Mul(decimal.NewFromFloat(cand.Employee.HourlyWage)), true
}

// SalaryCap 工资上限
func SalaryCap(cand *Candidate) decimal.Decimal {
	return decimal.NewFromFloat(cand.Employee.MaxSalary)
}

// NearSalaryCap 预计工资是否超过上限的 90%
func NearSalaryCap(cand *Candidate, projected decimal.Decimal) bool {
	threshold := SalaryCap(cand).Mul(decimal.NewFromFloat(SalaryWarningRatio))
	return projected.GreaterThan(threshold)
}
