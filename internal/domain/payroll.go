package domain

import "time"

type PayrollStatus string

const (
	PayrollStatusImplementation PayrollStatus = "implementation"
	PayrollStatusActive         PayrollStatus = "active"
	PayrollStatusInactive       PayrollStatus = "inactive"
)

// Payroll 是薪资组的一个配置版本。同一个薪资组的所有版本共享 FamilyID，
// 任意时刻每个薪资组至多只有一个版本的 IsCurrent 为 true（由数据库的
// 部分唯一索引 payrolls_family_current_key 保证）
type Payroll struct {
	ID                      int64         `json:"id"`
	FamilyID                int64         `json:"familyID"`
	Name                    string        `json:"name"`
	ClientID                int64         `json:"clientID"`
	CycleID                 int64         `json:"cycleID"`
	DateTypeID              int64         `json:"dateTypeID"`
	DateValue               int32         `json:"dateValue"`
	PrimaryConsultantID     int64         `json:"primaryConsultantID"`
	BackupConsultantID      *int64        `json:"backupConsultantID"`
	ManagerID               *int64        `json:"managerID"`
	ProcessingDaysBeforeEFT int32         `json:"processingDaysBeforeEFT"`
	GoLiveDate              time.Time     `json:"goLiveDate"`
	SupersededDate          *time.Time    `json:"supersededDate"`
	VersionNumber           int32         `json:"versionNumber"`
	VersionReason           string        `json:"versionReason"`
	Status                  PayrollStatus `json:"status"`
	IsCurrent               bool          `json:"isCurrent"`
	ParentPayrollID         *int64        `json:"parentPayrollID"`
	CreatedAt               time.Time     `json:"createdAt"`
	Version                 int32         `json:"-"`
}

// ActivationResult 记录一次待生效版本的处理结果，用于 activation 的可观测性
type ActivationResult struct {
	PayrollID     int64     `json:"payrollID"`
	FamilyID      int64     `json:"familyID"`
	VersionNumber int32     `json:"versionNumber"`
	ActionTaken   string    `json:"actionTaken"`
	ExecutedAt    time.Time `json:"executedAt"`
}
