package domain

import "time"

type CycleCode string

const (
	CycleWeekly      CycleCode = "weekly"
	CycleBiweekly    CycleCode = "biweekly"
	CycleSemimonthly CycleCode = "semimonthly"
	CycleMonthly     CycleCode = "monthly"
)

type Cycle struct {
	ID          int64     `json:"id"`
	Code        CycleCode `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}

type DateTypeCode string

const (
	// DateTypeFixedDay 表示固定在每月/每周的某一天发薪，具体哪一天由 payroll 的 dateValue 决定
	DateTypeFixedDay        DateTypeCode = "fixed_day"
	DateTypeLastDay         DateTypeCode = "last_day"
	DateTypeLastBusinessDay DateTypeCode = "last_business_day"
)

type DateType struct {
	ID          int64        `json:"id"`
	Code        DateTypeCode `json:"code"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
	Version     int32        `json:"-"`
}

type AdjustmentRuleCode string

const (
	AdjustPreviousBusinessDay AdjustmentRuleCode = "previous_business_day"
	AdjustNextBusinessDay     AdjustmentRuleCode = "next_business_day"
	AdjustNearestBusinessDay  AdjustmentRuleCode = "nearest_business_day"
)

// AdjustmentRule 决定当计算出的发薪日落在节假日或周末时应该如何移动，
// 每个 (cycle, dateType) 组合至多只有一条规则
type AdjustmentRule struct {
	ID          int64              `json:"id"`
	CycleID     int64              `json:"cycleID"`
	DateTypeID  int64              `json:"dateTypeID"`
	RuleCode    AdjustmentRuleCode `json:"ruleCode"`
	Description string             `json:"description"`
	CreatedAt   time.Time          `json:"createdAt"`
	Version     int32              `json:"-"`
}

type Holiday struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	HolidayDate time.Time `json:"holidayDate"`
	CountryCode string    `json:"countryCode"`
	Region      *string   `json:"region"`
	IsGlobal    bool      `json:"isGlobal"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}

type Client struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CountryCode string    `json:"countryCode"`
	Region      *string   `json:"region"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}
