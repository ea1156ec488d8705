package paydate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

func TestAdjustWorkingDayUnchanged(t *testing.T) {
	a := NewAdjuster(NewCalendar(nil), "CN", nil)

	d := date(2026, time.February, 4) // 周三
	assert.Equal(t, d, a.Adjust(d, domain.AdjustPreviousBusinessDay, domain.DateTypeFixedDay))
	assert.Equal(t, d, a.Adjust(d, domain.AdjustNextBusinessDay, domain.DateTypeFixedDay))
	assert.Equal(t, d, a.Adjust(d, domain.AdjustNearestBusinessDay, domain.DateTypeFixedDay))
}

func TestAdjustIdempotent(t *testing.T) {
	a := NewAdjuster(NewCalendar([]*domain.Holiday{
		{Name: "春节", HolidayDate: date(2026, time.February, 17), CountryCode: "CN"},
	}), "CN", nil)

	rules := []domain.AdjustmentRuleCode{
		domain.AdjustPreviousBusinessDay,
		domain.AdjustNextBusinessDay,
		domain.AdjustNearestBusinessDay,
	}

	for _, rule := range rules {
		for day := 1; day <= 28; day++ {
			once := a.Adjust(date(2026, time.February, day), rule, domain.DateTypeFixedDay)
			twice := a.Adjust(once, rule, domain.DateTypeFixedDay)
			assert.Equal(t, once, twice, "rule %s day %d", rule, day)
		}
	}
}

// 月末发薪日落在周六且下周一是节假日时，应该调整到上一个周五
func TestAdjustMonthEndSaturdayWithHolidayMonday(t *testing.T) {
	cal := NewCalendar([]*domain.Holiday{
		{Name: "节假日", HolidayDate: date(2026, time.February, 2), CountryCode: "CN"},
	})
	a := NewAdjuster(cal, "CN", nil)

	saturday := date(2026, time.January, 31)
	friday := date(2026, time.January, 30)

	assert.Equal(t, friday, a.Adjust(saturday, domain.AdjustPreviousBusinessDay, domain.DateTypeLastDay))
	assert.Equal(t, friday, a.Adjust(saturday, domain.AdjustNearestBusinessDay, domain.DateTypeLastDay))
}

func TestAdjustRollForward(t *testing.T) {
	cal := NewCalendar([]*domain.Holiday{
		{Name: "节假日", HolidayDate: date(2026, time.February, 2), CountryCode: "CN"},
	})
	a := NewAdjuster(cal, "CN", nil)

	// 周日 + 周一节假日 → 周二
	assert.Equal(t, date(2026, time.February, 3), a.Adjust(date(2026, time.February, 1), domain.AdjustNextBusinessDay, domain.DateTypeFixedDay))
}

// 月末类型回退跨月时改为向后顺延，而不是把发薪日挪到上个月
func TestAdjustMonthEndStaysInMonth(t *testing.T) {
	holidays := []*domain.Holiday{}
	for day := 2; day <= 27; day++ {
		holidays = append(holidays, &domain.Holiday{
			Name:        "停工",
			HolidayDate: date(2026, time.February, day),
			CountryCode: "CN",
		})
	}
	a := NewAdjuster(NewCalendar(holidays), "CN", nil)

	// 2026-02-28 是周六，往前全是节假日，回退会落到 1 月，因此必须向后顺延到 3 月 2 日（周一）
	assert.Equal(t, date(2026, time.March, 2), a.Adjust(date(2026, time.February, 28), domain.AdjustPreviousBusinessDay, domain.DateTypeLastDay))

	// 非月末类型允许跨月回退
	assert.Equal(t, date(2026, time.January, 30), a.Adjust(date(2026, time.February, 1), domain.AdjustPreviousBusinessDay, domain.DateTypeFixedDay))
}

func TestSubtractBusinessDays(t *testing.T) {
	cal := NewCalendar([]*domain.Holiday{
		{Name: "节假日", HolidayDate: date(2026, time.February, 4), CountryCode: "CN"},
	})
	a := NewAdjuster(cal, "CN", nil)

	// 从周五（2 月 6 日）往前数 3 个工作日：周四(5)→周二(3，跳过周三节假日)→周一(2)
	assert.Equal(t, date(2026, time.February, 2), a.SubtractBusinessDays(date(2026, time.February, 6), 3))

	// n 为 0 时只把日期滚动到工作日
	assert.Equal(t, date(2026, time.February, 6), a.SubtractBusinessDays(date(2026, time.February, 7), 0))
}
