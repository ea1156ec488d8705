package seed

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/paydate"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/utils"
)

var cycles = []*domain.Cycle{
	{Code: domain.CycleWeekly, Name: "每周", Description: "每周发薪一次"},
	{Code: domain.CycleBiweekly, Name: "双周", Description: "每两周发薪一次，以上线日期所在周为基准"},
	{Code: domain.CycleSemimonthly, Name: "半月", Description: "每月 15 号和月末各发薪一次"},
	{Code: domain.CycleMonthly, Name: "每月", Description: "每月发薪一次"},
}

var dateTypes = []*domain.DateType{
	{Code: domain.DateTypeFixedDay, Name: "固定日期", Description: "固定在每月/每周的某一天发薪"},
	{Code: domain.DateTypeLastDay, Name: "月末最后一天", Description: "每月最后一个自然日发薪"},
	{Code: domain.DateTypeLastBusinessDay, Name: "月末最后工作日", Description: "每月最后一个工作日发薪"},
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

var holidays = []*domain.Holiday{
	{Name: "元旦", HolidayDate: date(2026, time.January, 1), CountryCode: "CN", IsGlobal: true},
	{Name: "春节", HolidayDate: date(2026, time.February, 17), CountryCode: "CN"},
	{Name: "春节", HolidayDate: date(2026, time.February, 18), CountryCode: "CN"},
	{Name: "春节", HolidayDate: date(2026, time.February, 19), CountryCode: "CN"},
	{Name: "清明节", HolidayDate: date(2026, time.April, 5), CountryCode: "CN"},
	{Name: "劳动节", HolidayDate: date(2026, time.May, 1), CountryCode: "CN"},
	{Name: "端午节", HolidayDate: date(2026, time.June, 19), CountryCode: "CN"},
	{Name: "中秋节", HolidayDate: date(2026, time.September, 25), CountryCode: "CN"},
	{Name: "国庆节", HolidayDate: date(2026, time.October, 1), CountryCode: "CN"},
	{Name: "国庆节", HolidayDate: date(2026, time.October, 2), CountryCode: "CN"},
	{Name: "Martin Luther King Jr. Day", HolidayDate: date(2026, time.January, 19), CountryCode: "US"},
	{Name: "Independence Day", HolidayDate: date(2026, time.July, 3), CountryCode: "US"},
	{Name: "Thanksgiving", HolidayDate: date(2026, time.November, 26), CountryCode: "US"},
	{Name: "Christmas", HolidayDate: date(2026, time.December, 25), CountryCode: "US"},
}

var clients = []*domain.Client{
	{Name: "广州云帆科技", CountryCode: "CN"},
	{Name: "深圳星河智造", CountryCode: "CN"},
	{Name: "Acme Manufacturing", CountryCode: "US", Region: strPtr("CA")},
	{Name: "Nimbus Logistics", CountryCode: "US", Region: strPtr("NY")},
}

func strPtr(s string) *string {
	return &s
}

// SeedReferenceData 插入周期、日期类型、调整规则和节假日等参考数据。
// 这些数据在生产环境中通过迁移维护，这里只用于本地开发
func SeedReferenceData(repo *repository.Repository) {
	for _, cycle := range cycles {
		if err := repo.CreateCycle(cycle); err != nil {
			slog.Error("无法插入发薪周期", "code", cycle.Code, "error", err)
			return
		}
	}
	slog.Info("插入发薪周期成功", "count", len(cycles))

	for _, dt := range dateTypes {
		if err := repo.CreateDateType(dt); err != nil {
			slog.Error("无法插入日期类型", "code", dt.Code, "error", err)
			return
		}
	}
	slog.Info("插入日期类型成功", "count", len(dateTypes))

	// 月末类型的日期回退可能跨月，显式配置为就近调整；其余组合用默认策略
	ruleSpecs := []struct {
		cycleCode    domain.CycleCode
		dateTypeCode domain.DateTypeCode
		ruleCode     domain.AdjustmentRuleCode
	}{
		{domain.CycleMonthly, domain.DateTypeLastDay, domain.AdjustNearestBusinessDay},
		{domain.CycleMonthly, domain.DateTypeFixedDay, domain.AdjustPreviousBusinessDay},
		{domain.CycleSemimonthly, domain.DateTypeFixedDay, domain.AdjustPreviousBusinessDay},
		{domain.CycleWeekly, domain.DateTypeFixedDay, domain.AdjustNextBusinessDay},
	}

	cycleIDs := make(map[domain.CycleCode]int64)
	for _, cycle := range cycles {
		cycleIDs[cycle.Code] = cycle.ID
	}
	dateTypeIDs := make(map[domain.DateTypeCode]int64)
	for _, dt := range dateTypes {
		dateTypeIDs[dt.Code] = dt.ID
	}

	for _, rs := range ruleSpecs {
		rule := &domain.AdjustmentRule{
			CycleID:     cycleIDs[rs.cycleCode],
			DateTypeID:  dateTypeIDs[rs.dateTypeCode],
			RuleCode:    rs.ruleCode,
			Description: fmt.Sprintf("%s + %s", rs.cycleCode, rs.dateTypeCode),
		}
		if err := repo.CreateAdjustmentRule(rule); err != nil {
			slog.Error("无法插入调整规则", "cycle", rs.cycleCode, "dateType", rs.dateTypeCode, "error", err)
			return
		}
	}
	slog.Info("插入调整规则成功", "count", len(ruleSpecs))

	for _, holiday := range holidays {
		if err := repo.CreateHoliday(holiday); err != nil {
			slog.Error("无法插入节假日", "name", holiday.Name, "error", err)
			return
		}
	}
	slog.Info("插入节假日成功", "count", len(holidays))
}

func SeedClients(repo *repository.Repository) {
	cnt := 0
	for _, client := range clients {
		if err := repo.CreateClient(client); err != nil {
			slog.Error("无法插入客户", "name", client.Name, "error", err)
			continue
		}
		cnt++
	}
	slog.Info("插入客户成功", "count", cnt)
}

// SeedPayrollFamilies 随机创建 n 个薪资组，并为每个薪资组生成上线后
// 六个月内的发薪日期。依赖参考数据、客户和顾问已经就绪
func SeedPayrollFamilies(repo *repository.Repository, n int) {
	allClients, err := repo.GetAllClients()
	if err != nil || len(allClients) == 0 {
		slog.Error("无法获取客户列表，请先插入客户", "error", err)
		return
	}

	allCycles, err := repo.GetAllCycles()
	if err != nil || len(allCycles) == 0 {
		slog.Error("无法获取发薪周期，请先插入参考数据", "error", err)
		return
	}

	allDateTypes, err := repo.GetAllDateTypes()
	if err != nil || len(allDateTypes) == 0 {
		slog.Error("无法获取日期类型，请先插入参考数据", "error", err)
		return
	}

	consultants, err := repo.GetActiveConsultants()
	if err != nil || len(consultants) == 0 {
		slog.Error("无法获取在职顾问，请先插入用户", "error", err)
		return
	}

	var fixedDay *domain.DateType
	for _, dt := range allDateTypes {
		if dt.Code == domain.DateTypeFixedDay {
			fixedDay = dt
		}
	}
	if fixedDay == nil {
		slog.Error("缺少固定日期类型，请先插入参考数据")
		return
	}

	cnt := 0
	for i := 0; i < n; i++ {
		client := allClients[rand.Intn(len(allClients))]
		cycle := allCycles[rand.Intn(len(allCycles))]
		consultant := consultants[rand.Intn(len(consultants))]

		// 每周/双周只能配固定日期，月度周期随机选日期类型
		dateType := allDateTypes[rand.Intn(len(allDateTypes))]
		if cycle.Code == domain.CycleWeekly || cycle.Code == domain.CycleBiweekly {
			dateType = fixedDay
		}

		payroll := utils.GenerateRandomPayroll(client.ID, cycle, dateType.ID, consultant.ID)

		countryHolidays, err := repo.GetHolidaysForCountry(client.CountryCode)
		if err != nil {
			slog.Error("无法获取节假日", "countryCode", client.CountryCode, "error", err)
			continue
		}

		rule, err := repo.GetAdjustmentRule(cycle.ID, dateType.ID)
		if err != nil {
			slog.Error("无法获取调整规则", "error", err)
			continue
		}

		engine := paydate.NewEngine(paydate.NewCalendar(countryHolidays))
		dates, err := engine.Generate(&paydate.GenerateRequest{
			Payroll:     payroll,
			Cycle:       cycle,
			DateType:    dateType,
			Rule:        rule,
			CountryCode: client.CountryCode,
			Region:      client.Region,
			WindowStart: payroll.GoLiveDate,
			WindowEnd:   payroll.GoLiveDate.AddDate(0, 6, 0),
			MaxDates:    60,
		})
		if err != nil {
			slog.Error("无法生成发薪日期", "payroll", payroll.Name, "error", err)
			continue
		}

		if err := repo.CreatePayrollFamily(payroll, dates, consultant.ID); err != nil {
			slog.Error("无法插入薪资组", "payroll", payroll.Name, "error", err)
			continue
		}

		cnt++
	}

	slog.Info("插入薪资组成功", "count", cnt)
}
