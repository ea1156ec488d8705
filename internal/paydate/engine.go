package paydate

import (
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

var (
	ErrInvalidWindow   = errors.New("结束日期必须晚于开始日期")
	ErrInvalidMaxDates = errors.New("单次生成的日期数量上限必须大于 0")
)

type GenerateRequest struct {
	Payroll     *domain.Payroll
	Cycle       *domain.Cycle
	DateType    *domain.DateType
	Rule        *domain.AdjustmentRule // 为 nil 时使用默认调整策略
	CountryCode string
	Region      *string
	WindowStart time.Time
	WindowEnd   time.Time
	MaxDates    int
}

// Engine 把 payroll 的周期配置展开成窗口内的发薪日期序列。
// 纯计算，不碰数据库，持久化由 repository 负责
type Engine struct {
	calendar *Calendar
}

func NewEngine(calendar *Calendar) *Engine {
	return &Engine{calendar: calendar}
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
}

// Generate 枚举 [WindowStart, WindowEnd] 内的候选发薪日，对每个候选日计算
// 调整后的支付日期以及处理截止日。候选日数量超过 MaxDates 时停止枚举
func (e *Engine) Generate(req *GenerateRequest) ([]*domain.PayrollDate, error) {
	windowStart := normalizeDate(req.WindowStart)
	windowEnd := normalizeDate(req.WindowEnd)

	if windowEnd.Before(windowStart) {
		return nil, ErrInvalidWindow
	}
	if req.MaxDates <= 0 {
		return nil, ErrInvalidMaxDates
	}

	candidates, err := e.enumerateCandidates(req, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	if len(candidates) > req.MaxDates {
		candidates = candidates[:req.MaxDates]
	}

	ruleCode := domain.AdjustPreviousBusinessDay
	if req.Rule != nil {
		ruleCode = req.Rule.RuleCode
	}

	adjuster := NewAdjuster(e.calendar, req.CountryCode, req.Region)

	dates := make([]*domain.PayrollDate, 0, len(candidates))
	for _, candidate := range candidates {
		adjusted := adjuster.Adjust(candidate, ruleCode, req.DateType.Code)
		processing := adjuster.SubtractBusinessDays(adjusted, int(req.Payroll.ProcessingDaysBeforeEFT))

		dates = append(dates, &domain.PayrollDate{
			PayrollID:       req.Payroll.ID,
			OriginalEFTDate: candidate,
			AdjustedEFTDate: adjusted,
			ProcessingDate:  processing,
		})
	}

	return dates, nil
}

func (e *Engine) enumerateCandidates(req *GenerateRequest, windowStart, windowEnd time.Time) ([]time.Time, error) {
	switch req.Cycle.Code {
	case domain.CycleWeekly:
		return e.enumerateWeekly(req, windowStart, windowEnd, 7)
	case domain.CycleBiweekly:
		return e.enumerateWeekly(req, windowStart, windowEnd, 14)
	case domain.CycleMonthly:
		return e.enumerateMonthly(req, windowStart, windowEnd, false)
	case domain.CycleSemimonthly:
		return e.enumerateMonthly(req, windowStart, windowEnd, true)
	default:
		return nil, fmt.Errorf("未知的发薪周期: %s", req.Cycle.Code)
	}
}

// enumerateWeekly 处理每周和每两周的周期，dateValue 是 ISO 星期（1 为周一）。
// 双周周期以 goLiveDate 所在周为基准确定奇偶相位
func (e *Engine) enumerateWeekly(req *GenerateRequest, windowStart, windowEnd time.Time, stepDays int) ([]time.Time, error) {
	weekday := int(req.Payroll.DateValue)
	if weekday < 1 || weekday > 7 {
		return nil, fmt.Errorf("周期为每周/双周时 dateValue 必须是 1~7 之间的星期数，当前为 %d", weekday)
	}

	isoWeekday := func(t time.Time) int {
		wd := int(t.Weekday())
		if wd == 0 {
			return 7
		}
		return wd
	}

	// 找到基准日：goLiveDate 所在周内对应的星期
	anchor := normalizeDate(req.Payroll.GoLiveDate)
	anchor = anchor.AddDate(0, 0, weekday-isoWeekday(anchor))

	// 移动到窗口开始之后的第一个符合相位的日期
	current := anchor
	if current.Before(windowStart) {
		diffDays := int(windowStart.Sub(current).Hours() / 24)
		steps := diffDays / stepDays
		current = current.AddDate(0, 0, steps*stepDays)
		for current.Before(windowStart) {
			current = current.AddDate(0, 0, stepDays)
		}
	}

	candidates := []time.Time{}
	for !current.After(windowEnd) {
		if !current.Before(windowStart) {
			candidates = append(candidates, current)
		}
		current = current.AddDate(0, 0, stepDays)
	}

	return candidates, nil
}

func (e *Engine) monthEndCandidate(req *GenerateRequest, year int, month time.Month) (time.Time, error) {
	switch req.DateType.Code {
	case domain.DateTypeFixedDay:
		day := int(req.Payroll.DateValue)
		if day < 1 || day > 31 {
			return time.Time{}, fmt.Errorf("dateValue 必须是 1~31 之间的日期，当前为 %d", day)
		}
		last := lastDayOfMonth(year, month)
		if day > last.Day() {
			// 当月没有这一天时取月末，例如 2 月 30 号
			day = last.Day()
		}
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
	case domain.DateTypeLastDay:
		return lastDayOfMonth(year, month), nil
	case domain.DateTypeLastBusinessDay:
		adjuster := NewAdjuster(e.calendar, req.CountryCode, req.Region)
		return adjuster.rollBackward(lastDayOfMonth(year, month)), nil
	default:
		return time.Time{}, fmt.Errorf("未知的日期类型: %s", req.DateType.Code)
	}
}

// enumerateMonthly 处理每月和半月周期。半月周期在每月 15 号额外发薪一次，
// 月末那次仍然按日期类型计算
func (e *Engine) enumerateMonthly(req *GenerateRequest, windowStart, windowEnd time.Time, semimonthly bool) ([]time.Time, error) {
	candidates := []time.Time{}

	year, month := windowStart.Year(), windowStart.Month()
	for {
		monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		if monthStart.After(windowEnd) {
			break
		}

		monthCandidates := []time.Time{}
		if semimonthly {
			monthCandidates = append(monthCandidates, time.Date(year, month, 15, 0, 0, 0, 0, time.UTC))
		}

		endCandidate, err := e.monthEndCandidate(req, year, month)
		if err != nil {
			return nil, err
		}
		monthCandidates = append(monthCandidates, endCandidate)

		for _, candidate := range monthCandidates {
			if candidate.Before(windowStart) || candidate.After(windowEnd) {
				continue
			}
			candidates = append(candidates, candidate)
		}

		month++
		if month > time.December {
			month = time.January
			year++
		}
	}

	return candidates, nil
}
