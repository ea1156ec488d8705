package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/utils"
)

// CommitAssignments 批量改派发薪日期的负责顾问。允许部分成功，
// 响应中逐项列出成功和失败；成功的改派会通过邮件通知新顾问
func (h *Handler) CommitAssignments(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Changes []struct {
			PayrollID        int64  `json:"payrollID" validate:"required"`
			Date             string `json:"date" validate:"required"`
			FromConsultantID int64  `json:"fromConsultantID" validate:"required"`
			ToConsultantID   int64  `json:"toConsultantID" validate:"required"`
		} `json:"changes" validate:"required,min=1,dive"`
		Reason string `json:"reason" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	changes := make([]domain.AssignmentChange, 0, len(req.Changes))
	for _, c := range req.Changes {
		date, err := time.Parse(time.DateOnly, c.Date)
		if err != nil {
			h.badRequest(w, r, errors.New("发薪日期格式必须是 yyyy-mm-dd"))
			return
		}
		changes = append(changes, domain.AssignmentChange{
			PayrollID:        c.PayrollID,
			Date:             date,
			FromConsultantID: c.FromConsultantID,
			ToConsultantID:   c.ToConsultantID,
		})
	}

	if err := utils.ValidateAssignmentChanges(changes); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	result, err := h.repository.CommitAssignments(changes, myInfo.ID, req.Reason)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 改派已经落库，通知失败只记日志，不影响响应
	h.notifyReassignedConsultants(result.AffectedAssignments, req.Reason)

	h.successResponse(w, r, "改派执行完成", result)
}

func (h *Handler) notifyReassignedConsultants(affected []domain.AffectedAssignment, reason string) {
	payrollNames := make(map[int64]string)

	for _, a := range affected {
		if _, ok := payrollNames[a.PayrollID]; !ok {
			payroll, err := h.repository.GetPayrollByID(a.PayrollID)
			if err != nil {
				slog.Error("获取薪资组信息失败，跳过改派通知", "payrollID", a.PayrollID, "error", err)
				continue
			}
			payrollNames[a.PayrollID] = payroll.Name
		}

		consultant, err := h.repository.GetUserByID(a.NewConsultantID)
		if err != nil {
			slog.Error("获取新顾问信息失败，跳过改派通知", "consultantID", a.NewConsultantID, "error", err)
			continue
		}

		mailMessage := domain.MailMessage{
			Type: "assignment_changed",
			To:   consultant.Email,
			Data: domain.AssignmentChangedMailData{
				FullName:    consultant.FullName,
				PayrollName: payrollNames[a.PayrollID],
				EFTDate:     a.AdjustedEFTDate.Format(time.DateOnly),
				Reason:      reason,
			},
		}

		mailData, err := json.Marshal(mailMessage)
		if err != nil {
			slog.Error("序列化改派通知失败", "consultantID", a.NewConsultantID, "error", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
		err = h.mailChannel.PublishWithContext(
			ctx,
			"",
			"email_queue",
			true,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        mailData,
			},
		)
		cancel()
		if err != nil {
			slog.Error("发送改派通知到消息队列失败", "consultantID", a.NewConsultantID, "error", err)
		}
	}
}
