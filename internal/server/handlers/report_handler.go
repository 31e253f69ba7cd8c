package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/service/reporting"
)

const queryDateLayout = "2006-01-02"

// Reporter builds sales reports.
type Reporter interface {
	SalesReport(ctx context.Context, q reporting.Query) (reporting.Report, error)
}

// ReportHandler serves the sales report.
type ReportHandler struct {
	reporter Reporter
	loc      *time.Location
	logger   *zap.Logger
}

func NewReportHandler(reporter Reporter, loc *time.Location, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{reporter: reporter, loc: loc, logger: logger}
}

// SalesReport handles GET /api/reports/sales?start=YYYY-MM-DD&end=YYYY-MM-DD&q=&status=.
func (h *ReportHandler) SalesReport(c *gin.Context) {
	start, err := time.ParseInLocation(queryDateLayout, c.Query("start"), h.loc)
	if err != nil {
		badRequest(c, "start must be a date formatted YYYY-MM-DD")
		return
	}
	end, err := time.ParseInLocation(queryDateLayout, c.Query("end"), h.loc)
	if err != nil {
		badRequest(c, "end must be a date formatted YYYY-MM-DD")
		return
	}
	status, err := reporting.ParseStatus(c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	report, err := h.reporter.SalesReport(c.Request.Context(), reporting.Query{
		Start:  start,
		End:    end,
		Search: c.Query("q"),
		Status: status,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
