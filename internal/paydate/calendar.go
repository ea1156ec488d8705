package paydate

import (
	"time"

	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

type holidayEntry struct {
	countryCode string
	region      *string
	isGlobal    bool
}

// Calendar 回答某一天对某个国家/地区来说是否是非工作日，
// 节假日数据由调用方从数据库加载后传入，本身不做任何 IO
type Calendar struct {
	entries map[string][]holidayEntry // key 为 yyyy-mm-dd
}

func NewCalendar(holidays []*domain.Holiday) *Calendar {
	c := &Calendar{
		entries: make(map[string][]holidayEntry),
	}

	for _, h := range holidays {
		key := h.HolidayDate.Format(time.DateOnly)
		c.entries[key] = append(c.entries[key], holidayEntry{
			countryCode: h.CountryCode,
			region:      h.Region,
			isGlobal:    h.IsGlobal,
		})
	}

	return c
}

func (c *Calendar) IsHoliday(date time.Time, countryCode string, region *string) bool {
	for _, entry := range c.entries[date.Format(time.DateOnly)] {
		if entry.isGlobal {
			return true
		}
		if entry.countryCode != countryCode {
			continue
		}
		// 节假日只限定某个地区时，必须传入的地区也匹配才算
		if entry.region == nil {
			return true
		}
		if region != nil && *entry.region == *region {
			return true
		}
	}

	return false
}

func (c *Calendar) IsNonWorkingDay(date time.Time, countryCode string, region *string) bool {
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		return true
	}

	return c.IsHoliday(date, countryCode, region)
}
