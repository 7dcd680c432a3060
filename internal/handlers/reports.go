package handlers

import (
	"net/http"
	"time"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/services"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/validation"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "today"
	}
	d, err := h.reports.Dashboard(r.Context(), period)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// Sales defaults to the last 30 days grouped by day. end_date is inclusive.
func (h *ReportHandler) Sales(w http.ResponseWriter, r *http.Request) {
	startParam, err := queryDate(r, "start_date")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	endParam, err := queryDate(r, "end_date")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	groupBy := r.URL.Query().Get("group_by")
	if groupBy == "" {
		groupBy = "day"
	}
	v := validation.Violations{}
	validation.OneOf("group_by", groupBy, services.GroupBys, v)
	if !v.Empty() {
		httpx.WriteError(w, r, httpx.Validation("Invalid group_by", v))
		return
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	end := today.AddDate(0, 0, 1)
	if endParam != nil {
		end = endParam.AddDate(0, 0, 1)
	}
	start := end.AddDate(0, 0, -30)
	if startParam != nil {
		start = *startParam
	}
	if !start.Before(end) {
		httpx.WriteError(w, r, httpx.Validation("start_date must not be after end_date", nil))
		return
	}

	report, err := h.reports.SalesReport(r.Context(), start, end, groupBy)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Inventory(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
