package paydate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

func newRequest(cycle domain.CycleCode, dateType domain.DateTypeCode, dateValue int32) *GenerateRequest {
	return &GenerateRequest{
		Payroll: &domain.Payroll{
			ID:                      1,
			DateValue:               dateValue,
			ProcessingDaysBeforeEFT: 2,
			GoLiveDate:              date(2026, time.January, 1),
		},
		Cycle:       &domain.Cycle{ID: 1, Code: cycle},
		DateType:    &domain.DateType{ID: 1, Code: dateType},
		CountryCode: "CN",
		WindowStart: date(2026, time.January, 1),
		WindowEnd:   date(2026, time.June, 30),
		MaxDates:    60,
	}
}

func TestGenerateInvalidWindow(t *testing.T) {
	engine := NewEngine(NewCalendar(nil))

	req := newRequest(domain.CycleMonthly, domain.DateTypeLastDay, 0)
	req.WindowStart = date(2026, time.June, 30)
	req.WindowEnd = date(2026, time.January, 1)

	_, err := engine.Generate(req)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestGenerateInvalidMaxDates(t *testing.T) {
	engine := NewEngine(NewCalendar(nil))

	req := newRequest(domain.CycleMonthly, domain.DateTypeLastDay, 0)
	req.MaxDates = 0

	_, err := engine.Generate(req)
	assert.ErrorIs(t, err, ErrInvalidMaxDates)
}

func TestGenerateUnknownCycle(t *testing.T) {
	engine := NewEngine(NewCalendar(nil))

	req := newRequest(domain.CycleCode("yearly"), domain.DateTypeLastDay, 0)

	_, err := engine.Generate(req)
	assert.Error(t, err)
}

func TestGenerateMonthlyFixedDay(t *testing.T) {
	engine := NewEngine(NewCalendar(nil))

	req := newRequest(domain.CycleMonthly, domain.DateTypeFixedDay, 31)
	dates, err := engine.Generate(req)
	require.NoError(t, err)
	require.Len(t, dates, 6)

	// 2 月没有 31 号，取月末
	assert.Equal(t, date(2026, time.January, 31), dates[0].OriginalEFTDate)
	assert.Equal(t, date(2026, time.February, 28), dates[1].OriginalEFTDate)
	assert.Equal(t, date(2026, time.April, 30), dates[3].OriginalEFTDate)

	for _, d := range dates {
		// 调整后的日期一定是工作日，处理截止日不晚于支付日期
		assert.False(t, engine.calendar.IsNonWorkingDay(d.AdjustedEFTDate, "CN", nil))
		assert.True(t, d.ProcessingDate.Before(d.AdjustedEFTDate))
	}
}

func TestGenerateMonthlyLastBusinessDay(t *testing.T) {
	engine := NewEngine(NewCalendar(nil))

	req := newRequest(domain.CycleMonthly, domain.DateTypeLastBusinessDay, 0)
	dates, err := engine.Generate(req)
	require.NoError(t, err)
	require.Len(t, dates, 6)

	// 2026-01-31 是周六，最后一个工作日是 30 号周五
	assert.Equal(t, date(2026, time.January, 30), dates[0].OriginalEFTDate)
	assert.Equal(t, dates[0].OriginalEFTDate, dates[0].AdjustedEFTDate)
}

func TestGenerateSemimonthly(t *testing.T) {
	engine := NewEngine(NewCalendar(nil))

	req := newRequest(domain.CycleSemimonthly, domain.DateTypeLastDay, 0)
	req.WindowEnd = date(2026, time.February, 28)
	dates, err := engine.Generate(req)
	require.NoError(t, err)
	require.Len(t, dates, 4)

	assert.Equal(t, date(2026, time.January, 15), dates[0].OriginalEFTDate)
	assert.Equal(t, date(2026, time.January, 31), dates[1].OriginalEFTDate)
	assert.Equal(t, date(2026, time.February, 15), dates[2].OriginalEFTDate)
	assert.Equal(t, date(2026, time.February, 28), dates[3].OriginalEFTDate)
}

func TestGenerateWeekly(t *testing.T) {
	engine := NewEngine(NewCalendar(nil))

	req := newRequest(domain.CycleWeekly, domain.DateTypeFixedDay, 5) // 每周五
	req.WindowEnd = date(2026, time.January, 31)
	dates, err := engine.Generate(req)
	require.NoError(t, err)
	require.Len(t, dates, 5)

	assert.Equal(t, date(2026, time.January, 2), dates[0].OriginalEFTDate)
	for _, d := range dates {
		assert.Equal(t, time.Friday, d.OriginalEFTDate.Weekday())
	}
}

func TestGenerateBiweeklyPhase(t *testing.T) {
	engine := NewEngine(NewCalendar(nil))

	req := newRequest(domain.CycleBiweekly, domain.DateTypeFixedDay, 5)
	req.WindowEnd = date(2026, time.February, 28)
	dates, err := engine.Generate(req)
	require.NoError(t, err)

	// 相位锚定在 goLiveDate 所在周的周五（1 月 2 日），之后每 14 天一次
	require.Len(t, dates, 5)
	assert.Equal(t, date(2026, time.January, 2), dates[0].OriginalEFTDate)
	assert.Equal(t, date(2026, time.January, 16), dates[1].OriginalEFTDate)
	assert.Equal(t, date(2026, time.February, 27), dates[4].OriginalEFTDate)

	// 窗口不从锚点开始时相位保持不变
	req.WindowStart = date(2026, time.January, 10)
	dates, err = engine.Generate(req)
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.January, 16), dates[0].OriginalEFTDate)
}

func TestGenerateMaxDatesCap(t *testing.T) {
	engine := NewEngine(NewCalendar(nil))

	req := newRequest(domain.CycleWeekly, domain.DateTypeFixedDay, 5)
	req.MaxDates = 3
	dates, err := engine.Generate(req)
	require.NoError(t, err)
	assert.Len(t, dates, 3)
}

func TestGenerateWeeklyInvalidDateValue(t *testing.T) {
	engine := NewEngine(NewCalendar(nil))

	req := newRequest(domain.CycleWeekly, domain.DateTypeFixedDay, 8)
	_, err := engine.Generate(req)
	assert.Error(t, err)
}
