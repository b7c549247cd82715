package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gatherly/community-service/internal/api/metrics"
	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
)

// ReportHandler handles HTTP requests for filing and resolving reports.
type ReportHandler struct {
	moderation ports.ModerationService
}

func NewReportHandler(moderation ports.ModerationService) *ReportHandler {
	return &ReportHandler{moderation: moderation}
}

type fileReportRequest struct {
	EventID string `json:"event_id" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=spam inappropriate scam illegal other"`
	Reason  string `json:"reason" validate:"required"`
}

type resolveReportRequest struct {
	// Verdict is "approve" (hide the event) or "reject" (leave it up).
	Verdict string `json:"verdict" validate:"required,oneof=approve reject"`
	Notes   string `json:"notes"`
}

type reportListResponse struct {
	Items []*domain.Report `json:"items"`
	Count int              `json:"count"`
}

// File handles POST /v1/reports.
//
// @Summary      File a report against an event
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      fileReportRequest  true  "Report details"
// @Success      201   {object}  domain.Report
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/reports [post]
func (h *ReportHandler) File(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req fileReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	report, err := h.moderation.FileReport(c.Request().Context(), ports.FileReportInput{
		EventID:    req.EventID,
		ReporterID: userID,
		Type:       domain.ReportType(req.Type),
		Reason:     req.Reason,
	})
	if err != nil {
		return err
	}

	metrics.ReportsFiledTotal.WithLabelValues(string(report.Type)).Inc()
	return c.JSON(http.StatusCreated, report)
}

// Resolve handles POST /v1/reports/:id/resolve — moderator action.
//
// @Summary      Resolve a pending report
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Report id (e.g. RPT-7A8B9C2D)"
// @Param        body  body      resolveReportRequest  true  "Verdict"
// @Success      200   {object}  domain.Report
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/reports/{id}/resolve [post]
func (h *ReportHandler) Resolve(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req resolveReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	start := time.Now()
	report, err := h.moderation.ResolveReport(c.Request().Context(), ports.ResolveReportInput{
		ReportID:    c.Param("id"),
		ModeratorID: userID,
		Approve:     req.Verdict == "approve",
		Notes:       req.Notes,
		IP:          c.RealIP(),
	})
	if err != nil {
		metrics.ResolutionDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return err
	}

	outcome := string(report.Status)
	metrics.ResolutionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	metrics.ReportsResolvedTotal.WithLabelValues(outcome).Inc()

	return c.JSON(http.StatusOK, report)
}

// ListPending handles GET /v1/reports/pending — moderator view.
//
// @Summary      List pending reports
// @Tags         moderation
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  reportListResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/reports/pending [get]
func (h *ReportHandler) ListPending(c echo.Context) error {
	reports, err := h.moderation.GetPendingReports(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reportListResponse{Items: reports, Count: len(reports)})
}

// ListResolved handles GET /v1/reports/resolved — moderator view.
//
// @Summary      List resolved reports
// @Tags         moderation
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  reportListResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/reports/resolved [get]
func (h *ReportHandler) ListResolved(c echo.Context) error {
	reports, err := h.moderation.GetResolvedReports(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reportListResponse{Items: reports, Count: len(reports)})
}
