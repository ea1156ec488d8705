package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

func (h *Handler) GetAllCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.repository.GetAllCycles()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取发薪周期列表成功", cycles)
}

func (h *Handler) GetAllDateTypes(w http.ResponseWriter, r *http.Request) {
	dateTypes, err := h.repository.GetAllDateTypes()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取日期类型列表成功", dateTypes)
}

func (h *Handler) GetAllAdjustmentRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.repository.GetAllAdjustmentRules()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取调整规则列表成功", rules)
}

func (h *Handler) GetAllHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.repository.GetAllHolidays()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取节假日列表成功", holidays)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name" validate:"required"`
		HolidayDate string  `json:"holidayDate" validate:"required"`
		CountryCode string  `json:"countryCode" validate:"required,len=2"`
		Region      *string `json:"region"`
		IsGlobal    bool    `json:"isGlobal"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	holidayDate, err := time.Parse(time.DateOnly, req.HolidayDate)
	if err != nil {
		h.badRequest(w, r, errors.New("节假日日期格式必须是 yyyy-mm-dd"))
		return
	}

	holiday := &domain.Holiday{
		Name:        req.Name,
		HolidayDate: holidayDate,
		CountryCode: req.CountryCode,
		Region:      req.Region,
		IsGlobal:    req.IsGlobal,
	}

	if err := h.repository.CreateHoliday(holiday); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建节假日成功", holiday)
}

func (h *Handler) GetAllClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.repository.GetAllClients()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取客户列表成功", clients)
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name" validate:"required"`
		CountryCode string  `json:"countryCode" validate:"required,len=2"`
		Region      *string `json:"region"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	client := &domain.Client{
		Name:        req.Name,
		CountryCode: req.CountryCode,
		Region:      req.Region,
	}

	if err := h.repository.CreateClient(client); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "clients_name_key":
				h.badRequest(w, r, errors.New("客户名称已存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建客户成功", client)
}
