package paydate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string {
	return &s
}

func TestCalendarWeekend(t *testing.T) {
	c := NewCalendar(nil)

	assert.True(t, c.IsNonWorkingDay(date(2026, time.January, 31), "CN", nil))  // 周六
	assert.True(t, c.IsNonWorkingDay(date(2026, time.February, 1), "CN", nil))  // 周日
	assert.False(t, c.IsNonWorkingDay(date(2026, time.February, 2), "CN", nil)) // 周一
}

func TestCalendarHolidayMatching(t *testing.T) {
	c := NewCalendar([]*domain.Holiday{
		{Name: "元旦", HolidayDate: date(2026, time.January, 1), CountryCode: "CN"},
		{Name: "区域节日", HolidayDate: date(2026, time.March, 3), CountryCode: "US", Region: strPtr("CA")},
		{Name: "全球停薪日", HolidayDate: date(2026, time.April, 1), CountryCode: "XX", IsGlobal: true},
	})

	assert.True(t, c.IsHoliday(date(2026, time.January, 1), "CN", nil))
	assert.False(t, c.IsHoliday(date(2026, time.January, 1), "US", nil))

	// 限定地区的节假日只对该地区生效
	assert.True(t, c.IsHoliday(date(2026, time.March, 3), "US", strPtr("CA")))
	assert.False(t, c.IsHoliday(date(2026, time.March, 3), "US", strPtr("NY")))
	assert.False(t, c.IsHoliday(date(2026, time.March, 3), "US", nil))

	// 全球节假日对所有国家生效
	assert.True(t, c.IsHoliday(date(2026, time.April, 1), "CN", nil))
	assert.True(t, c.IsHoliday(date(2026, time.April, 1), "DE", nil))
}

func TestCalendarUnknownCountry(t *testing.T) {
	c := NewCalendar([]*domain.Holiday{
		{Name: "元旦", HolidayDate: date(2026, time.January, 1), CountryCode: "CN"},
	})

	// 未知国家没有节假日数据，但周末仍然是非工作日
	assert.False(t, c.IsNonWorkingDay(date(2026, time.January, 1), "ZZ", nil))
	assert.True(t, c.IsNonWorkingDay(date(2026, time.January, 3), "ZZ", nil))
}
