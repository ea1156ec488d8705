package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

// GeneratePayrollDates 持久化一批生成好的发薪日期。整批在一个事务内完成，
// 任何一条失败都会整体回滚；与已有日期冲突的行被跳过，因此重复执行是幂等的。
// 返回本次真正新建的行
func (r *Repository) GeneratePayrollDates(payroll *domain.Payroll, dates []*domain.PayrollDate, assignedBy int64) ([]*domain.PayrollDate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, d := range dates {
		d.PayrollID = payroll.ID
	}

	created, err := insertDatesTx(ctx, tx, dates, payroll.PrimaryConsultantID, assignedBy)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return created, nil
}

func (r *Repository) GetPayrollDates(payrollID int64) ([]*domain.PayrollDateWithAssignment, error) {
	query := `
		SELECT
			pd.id, pd.payroll_id, pd.original_eft_date, pd.adjusted_eft_date,
			pd.processing_date, pd.notes, pd.created_at, pd.version,
			pa.id, pa.consultant_id, pa.original_consultant_id, pa.is_backup,
			pa.assigned_by, pa.assigned_at, pa.version
		FROM payroll_dates pd
		LEFT JOIN payroll_assignments pa ON pa.payroll_date_id = pd.id
		WHERE pd.payroll_id = $1
		ORDER BY pd.original_eft_date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, payrollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make([]*domain.PayrollDateWithAssignment, 0)
	for rows.Next() {
		d := &domain.PayrollDateWithAssignment{}
		var assignmentID, consultantID, originalConsultantID, assignedBy sql.NullInt64
		var isBackup sql.NullBool
		var assignedAt sql.NullTime
		var assignmentVersion sql.NullInt32

		dst := []any{
			&d.ID, &d.PayrollID, &d.OriginalEFTDate, &d.AdjustedEFTDate,
			&d.ProcessingDate, &d.Notes, &d.CreatedAt, &d.Version,
			&assignmentID, &consultantID, &originalConsultantID, &isBackup,
			&assignedBy, &assignedAt, &assignmentVersion,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if assignmentID.Valid {
			d.Assignment = &domain.PayrollAssignment{
				ID:                   assignmentID.Int64,
				PayrollDateID:        d.ID,
				ConsultantID:         consultantID.Int64,
				OriginalConsultantID: originalConsultantID.Int64,
				IsBackup:             isBackup.Bool,
				AssignedBy:           assignedBy.Int64,
				AssignedAt:           assignedAt.Time,
				Version:              assignmentVersion.Int32,
			}
		}

		dates = append(dates, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dates, nil
}

// GetAssignmentAudits 返回某个发薪日期的改派记录，日期必须属于给定的薪资组版本，
// 防止通过别的薪资组的路径读到不相干的审计记录
func (r *Repository) GetAssignmentAudits(payrollID, payrollDateID int64) ([]*domain.AssignmentAudit, error) {
	query := `
		SELECT aa.id, aa.payroll_date_id, aa.from_consultant_id, aa.to_consultant_id, aa.changed_by, aa.reason, aa.changed_at
		FROM assignment_audits aa
		JOIN payroll_dates pd ON pd.id = aa.payroll_date_id
		WHERE aa.payroll_date_id = $1 AND pd.payroll_id = $2
		ORDER BY aa.changed_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, payrollDateID, payrollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	audits := make([]*domain.AssignmentAudit, 0)
	for rows.Next() {
		audit := &domain.AssignmentAudit{}
		dst := []any{&audit.ID, &audit.PayrollDateID, &audit.FromConsultantID, &audit.ToConsultantID, &audit.ChangedBy, &audit.Reason, &audit.ChangedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return audits, nil
}
