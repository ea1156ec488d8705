package paydate

import (
	"time"

	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

// Adjuster 负责把落在节假日或周末上的候选日期移动到工作日。
// 策略是一个封闭集合（向前、向后、最近），没有配置规则时默认向前回退。
// 对已经是工作日的日期调用 Adjust 会原样返回，因此 Adjust 是幂等的
type Adjuster struct {
	calendar    *Calendar
	countryCode string
	region      *string
}

func NewAdjuster(calendar *Calendar, countryCode string, region *string) *Adjuster {
	return &Adjuster{
		calendar:    calendar,
		countryCode: countryCode,
		region:      region,
	}
}

func (a *Adjuster) isWorkingDay(date time.Time) bool {
	return !a.calendar.IsNonWorkingDay(date, a.countryCode, a.region)
}

func (a *Adjuster) rollBackward(date time.Time) time.Time {
	for !a.isWorkingDay(date) {
		date = date.AddDate(0, 0, -1)
	}
	return date
}

func (a *Adjuster) rollForward(date time.Time) time.Time {
	for !a.isWorkingDay(date) {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

func isMonthAnchored(dateType domain.DateTypeCode) bool {
	return dateType == domain.DateTypeLastDay || dateType == domain.DateTypeLastBusinessDay
}

func (a *Adjuster) Adjust(candidate time.Time, rule domain.AdjustmentRuleCode, dateType domain.DateTypeCode) time.Time {
	if a.isWorkingDay(candidate) {
		return candidate
	}

	switch rule {
	case domain.AdjustNextBusinessDay:
		return a.rollForward(candidate)
	case domain.AdjustNearestBusinessDay:
		backward := a.rollBackward(candidate)
		forward := a.rollForward(candidate)
		// 距离相同时优先取更早的那天
		if candidate.Sub(backward) <= forward.Sub(candidate) {
			if isMonthAnchored(dateType) && backward.Month() != candidate.Month() {
				return forward
			}
			return backward
		}
		return forward
	default:
		// 包括 previous_business_day 以及没有配置规则的情况
		backward := a.rollBackward(candidate)
		// 月末类型的发薪日必须留在当月，回退跨月时改为向后顺延
		if isMonthAnchored(dateType) && backward.Month() != candidate.Month() {
			return a.rollForward(candidate)
		}
		return backward
	}
}

// SubtractBusinessDays 从 date 开始往前数 n 个工作日，
// n 为 0 时只保证结果落在工作日上
func (a *Adjuster) SubtractBusinessDays(date time.Time, n int) time.Time {
	result := a.rollBackward(date)
	for i := 0; i < n; i++ {
		result = a.rollBackward(result.AddDate(0, 0, -1))
	}
	return result
}
