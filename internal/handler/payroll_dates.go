package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/utils"
)

// GeneratePayrollDates 为当前版本生成一个窗口内的发薪日期。
// 已存在的日期会被跳过，重复调用不会产生重复数据
func (h *Handler) GeneratePayrollDates(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	payroll := r.Context().Value(PayrollCtx).(*domain.Payroll)

	var req struct {
		StartDate string `json:"startDate" validate:"required"`
		EndDate   string `json:"endDate" validate:"required"`
		MaxDates  int    `json:"maxDates"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	startDate, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		h.badRequest(w, r, errors.New("开始日期格式必须是 yyyy-mm-dd"))
		return
	}
	endDate, err := time.Parse(time.DateOnly, req.EndDate)
	if err != nil {
		h.badRequest(w, r, errors.New("结束日期格式必须是 yyyy-mm-dd"))
		return
	}

	if err := utils.ValidateDateWindow(startDate, endDate); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	maxDates := req.MaxDates
	if maxDates <= 0 || maxDates > h.config.Payroll.MaxDatesPerRun {
		maxDates = h.config.Payroll.MaxDatesPerRun
	}

	gc, err := h.loadGenerationContext(payroll.ClientID, payroll.CycleID, payroll.DateTypeID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "客户、发薪周期或日期类型不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	dates, err := gc.generate(payroll, startDate, endDate, maxDates)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	created, err := h.repository.GeneratePayrollDates(payroll, dates, myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "生成发薪日期成功", map[string]any{
		"requested": len(dates),
		"created":   len(created),
		"dates":     created,
	})
}

func (h *Handler) GetPayrollDates(w http.ResponseWriter, r *http.Request) {
	payroll := r.Context().Value(PayrollCtx).(*domain.Payroll)

	dates, err := h.repository.GetPayrollDates(payroll.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取发薪日期列表成功", dates)
}

func (h *Handler) GetAssignmentAudits(w http.ResponseWriter, r *http.Request) {
	payroll := r.Context().Value(PayrollCtx).(*domain.Payroll)

	dateIDParam := chi.URLParam(r, "dateID")
	dateID, err := strconv.ParseInt(dateIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "发薪日期ID无效")
		return
	}

	audits, err := h.repository.GetAssignmentAudits(payroll.ID, dateID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取改派记录成功", audits)
}
