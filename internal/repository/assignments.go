package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

// CommitAssignments 批量改派发薪日期的负责顾问。每个日期的"更新 + 审计"
// 是一个独立事务，单项失败不影响其他项；结果里逐项给出成功和失败原因，
// 绝不静默丢弃失败。fromConsultant 与当前分配不一致说明有人先改过，
// 记为冲突并跳过
func (r *Repository) CommitAssignments(changes []domain.AssignmentChange, changedBy int64, reason string) (*domain.AssignmentCommitResult, error) {
	result := &domain.AssignmentCommitResult{
		AffectedAssignments: []domain.AffectedAssignment{},
		Errors:              []string{},
	}

	for _, change := range changes {
		affected, err := r.commitOneAssignment(change, changedBy, reason)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.AffectedAssignments = append(result.AffectedAssignments, *affected)
	}

	result.Success = len(result.Errors) == 0
	return result, nil
}

func (r *Repository) commitOneAssignment(change domain.AssignmentChange, changedBy int64, reason string) (*domain.AffectedAssignment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("薪资组 %d 日期 %s: 无法开启事务: %w", change.PayrollID, change.Date.Format(time.DateOnly), err)
	}
	defer tx.Rollback()

	lockQuery := `
		SELECT pd.id, pd.adjusted_eft_date, pa.id, pa.consultant_id
		FROM payroll_dates pd
		JOIN payroll_assignments pa ON pa.payroll_date_id = pd.id
		WHERE pd.payroll_id = $1 AND pd.original_eft_date = $2
		FOR UPDATE OF pa
	`

	var payrollDateID, assignmentID, currentConsultantID int64
	var adjustedEFTDate time.Time
	dst := []any{&payrollDateID, &adjustedEFTDate, &assignmentID, &currentConsultantID}
	if err := tx.QueryRowContext(ctx, lockQuery, change.PayrollID, change.Date).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("薪资组 %d 日期 %s: 发薪日期不存在", change.PayrollID, change.Date.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("薪资组 %d 日期 %s: %w", change.PayrollID, change.Date.Format(time.DateOnly), err)
	}

	if currentConsultantID != change.FromConsultantID {
		return nil, fmt.Errorf(
			"薪资组 %d 日期 %s: 当前负责顾问是 %d 而不是 %d，可能已被他人修改，请刷新后重试",
			change.PayrollID, change.Date.Format(time.DateOnly), currentConsultantID, change.FromConsultantID,
		)
	}

	updateQuery := `
		UPDATE payroll_assignments
		SET consultant_id = $1, assigned_by = $2, assigned_at = NOW(), version = version + 1
		WHERE id = $3
	`
	if _, err := tx.ExecContext(ctx, updateQuery, change.ToConsultantID, changedBy, assignmentID); err != nil {
		return nil, fmt.Errorf("薪资组 %d 日期 %s: 更新分配失败: %w", change.PayrollID, change.Date.Format(time.DateOnly), err)
	}

	auditQuery := `
		INSERT INTO assignment_audits (payroll_date_id, from_consultant_id, to_consultant_id, changed_by, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var auditID int64
	args := []any{payrollDateID, change.FromConsultantID, change.ToConsultantID, changedBy, reason}
	if err := tx.QueryRowContext(ctx, auditQuery, args...).Scan(&auditID); err != nil {
		return nil, fmt.Errorf("薪资组 %d 日期 %s: 写入审计记录失败: %w", change.PayrollID, change.Date.Format(time.DateOnly), err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("薪资组 %d 日期 %s: 提交失败: %w", change.PayrollID, change.Date.Format(time.DateOnly), err)
	}

	return &domain.AffectedAssignment{
		ID:                   assignmentID,
		PayrollID:            change.PayrollID,
		PayrollDateID:        payrollDateID,
		OriginalConsultantID: change.FromConsultantID,
		NewConsultantID:      change.ToConsultantID,
		AdjustedEFTDate:      adjustedEFTDate,
	}, nil
}
