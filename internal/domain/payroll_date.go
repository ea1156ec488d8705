package domain

import "time"

// PayrollDate 是某个版本下的一次具体发薪：OriginalEFTDate 是按周期算出的
// 原始日期，AdjustedEFTDate 是经过节假日调整后的实际支付日期，
// ProcessingDate 是提前量（processingDaysBeforeEFT 个工作日）之后的处理截止日。
// (payroll_id, original_eft_date) 唯一，重新生成时不会产生重复行
type PayrollDate struct {
	ID              int64     `json:"id"`
	PayrollID       int64     `json:"payrollID"`
	OriginalEFTDate time.Time `json:"originalEFTDate"`
	AdjustedEFTDate time.Time `json:"adjustedEFTDate"`
	ProcessingDate  time.Time `json:"processingDate"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
	Version         int32     `json:"-"`
}

// PayrollAssignment 记录某个发薪日当前由哪位顾问负责，与 PayrollDate 一一对应
type PayrollAssignment struct {
	ID                   int64     `json:"id"`
	PayrollDateID        int64     `json:"payrollDateID"`
	ConsultantID         int64     `json:"consultantID"`
	OriginalConsultantID int64     `json:"originalConsultantID"`
	IsBackup             bool      `json:"isBackup"`
	AssignedBy           int64     `json:"assignedBy"`
	AssignedAt           time.Time `json:"assignedAt"`
	Version              int32     `json:"-"`
}

// AssignmentAudit 是顾问变更的审计记录，只追加，不修改也不删除
type AssignmentAudit struct {
	ID               int64     `json:"id"`
	PayrollDateID    int64     `json:"payrollDateID"`
	FromConsultantID int64     `json:"fromConsultantID"`
	ToConsultantID   int64     `json:"toConsultantID"`
	ChangedBy        int64     `json:"changedBy"`
	Reason           string    `json:"reason"`
	ChangedAt        time.Time `json:"changedAt"`
}

// PayrollDateWithAssignment 是日期列表查询的读取模型，Assignment 可能为 nil
type PayrollDateWithAssignment struct {
	PayrollDate
	Assignment *PayrollAssignment `json:"assignment"`
}

type AssignmentChange struct {
	PayrollID        int64     `json:"payrollID"`
	Date             time.Time `json:"date"`
	FromConsultantID int64     `json:"fromConsultantID"`
	ToConsultantID   int64     `json:"toConsultantID"`
}

type AffectedAssignment struct {
	ID                   int64     `json:"id"`
	PayrollID            int64     `json:"payrollID"`
	PayrollDateID        int64     `json:"payrollDateID"`
	OriginalConsultantID int64     `json:"originalConsultantID"`
	NewConsultantID      int64     `json:"newConsultantID"`
	AdjustedEFTDate      time.Time `json:"adjustedEFTDate"`
}

// AssignmentCommitResult 同时携带成功项和逐项的失败原因，
// 批量改派允许部分成功，但绝不静默吞掉失败
type AssignmentCommitResult struct {
	Success             bool                 `json:"success"`
	AffectedAssignments []AffectedAssignment `json:"affectedAssignments"`
	Errors              []string             `json:"errors"`
}
