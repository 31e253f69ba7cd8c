package handlers

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/domain/models"
	"github.com/mamadbah2/praya-stock/internal/spreadsheet"
)

// Ledger is the stock ledger as seen by the HTTP layer.
type Ledger interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	AddItem(ctx context.Context, in models.NewItem) (models.Item, error)
	AddItemsBulk(ctx context.Context, rows []models.ImportRow) ([]models.Item, error)
	RenameItem(ctx context.Context, id, name string) (models.Item, error)
	DeleteItem(ctx context.Context, id string) error

	IncomingHistory(ctx context.Context) ([]models.IncomingEntry, error)
	RecordIncoming(ctx context.Context, req models.IncomingRequest) (models.IncomingEvent, error)

	OutgoingHistory(ctx context.Context) ([]models.OutgoingEntry, error)
	RecordOutgoing(ctx context.Context, req models.OutgoingRequest) (models.OutgoingEvent, error)
	RecordOutgoingBatch(ctx context.Context, reqs []models.OutgoingRequest) ([]models.OutgoingEvent, error)
	ImportOutgoing(ctx context.Context, rows []models.ImportRow) ([]models.OutgoingEvent, error)
	DeleteOutgoing(ctx context.Context, id string) error

	Reconcile(ctx context.Context, repair bool) ([]models.StockDrift, error)
}

// SheetReader reads a Google Sheets range.
type SheetReader interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// StockHandler serves items, incoming and outgoing stock.
type StockHandler struct {
	ledger Ledger
	sheets SheetReader
	logger *zap.Logger
}

// NewStockHandler wires the handler. sheets may be nil when Google Sheets
// import is not configured.
func NewStockHandler(ledger Ledger, sheets SheetReader, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{ledger: ledger, sheets: sheets, logger: logger}
}

func (h *StockHandler) ListItems(c *gin.Context) {
	items, err := h.ledger.ListItems(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *StockHandler) CreateItem(c *gin.Context) {
	var req models.NewItem
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code and name are required")
		return
	}

	item, err := h.ledger.AddItem(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ImportItems registers every row of an uploaded .xlsx file.
func (h *StockHandler) ImportItems(c *gin.Context) {
	rows, ok := h.readUpload(c, spreadsheet.KindItems)
	if !ok {
		return
	}
	h.importItems(c, rows)
}

// ImportItemsFromSheet registers every row of a Google Sheets range.
func (h *StockHandler) ImportItemsFromSheet(c *gin.Context) {
	rows, ok := h.readSheet(c, spreadsheet.KindItems)
	if !ok {
		return
	}
	h.importItems(c, rows)
}

func (h *StockHandler) importItems(c *gin.Context, rows []models.ImportRow) {
	items, err := h.ledger.AddItemsBulk(c.Request.Context(), rows)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imported": len(items), "items": items})
}

type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *StockHandler) RenameItem(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	item, err := h.ledger.RenameItem(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *StockHandler) DeleteItem(c *gin.Context) {
	if err := h.ledger.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StockHandler) ListIncoming(c *gin.Context) {
	entries, err := h.ledger.IncomingHistory(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"incoming": entries})
}

func (h *StockHandler) CreateIncoming(c *gin.Context) {
	var req models.IncomingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "item_id, quantity and source are required")
		return
	}

	event, err := h.ledger.RecordIncoming(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *StockHandler) ListOutgoing(c *gin.Context) {
	entries, err := h.ledger.OutgoingHistory(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outgoing": entries})
}

// outgoingPayload is either a single sale or a batch under "items".
type outgoingPayload struct {
	ItemID   string                   `json:"item_id"`
	Quantity int                      `json:"quantity"`
	Items    []models.OutgoingRequest `json:"items"`
}

func (h *StockHandler) CreateOutgoing(c *gin.Context) {
	var req outgoingPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if len(req.Items) > 0 {
		events, err := h.ledger.RecordOutgoingBatch(c.Request.Context(), req.Items)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"recorded": len(events), "outgoing": events})
		return
	}

	if req.ItemID == "" {
		badRequest(c, "item_id or items is required")
		return
	}
	event, err := h.ledger.RecordOutgoing(c.Request.Context(), models.OutgoingRequest{ItemID: req.ItemID, Quantity: req.Quantity})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// ImportOutgoing records every row of an uploaded .xlsx sales file.
func (h *StockHandler) ImportOutgoing(c *gin.Context) {
	rows, ok := h.readUpload(c, spreadsheet.KindSales)
	if !ok {
		return
	}
	h.importOutgoing(c, rows)
}

// ImportOutgoingFromSheet records every row of a Google Sheets sales range.
func (h *StockHandler) ImportOutgoingFromSheet(c *gin.Context) {
	rows, ok := h.readSheet(c, spreadsheet.KindSales)
	if !ok {
		return
	}
	h.importOutgoing(c, rows)
}

func (h *StockHandler) importOutgoing(c *gin.Context, rows []models.ImportRow) {
	events, err := h.ledger.ImportOutgoing(c.Request.Context(), rows)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recorded": len(events), "outgoing": events})
}

func (h *StockHandler) DeleteOutgoing(c *gin.Context) {
	if err := h.ledger.DeleteOutgoing(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reconcile reports stock drift; ?repair=true also fixes it.
func (h *StockHandler) Reconcile(c *gin.Context) {
	repair, err := strconv.ParseBool(c.DefaultQuery("repair", "false"))
	if err != nil {
		badRequest(c, "repair must be a boolean")
		return
	}

	drifts, err := h.ledger.Reconcile(c.Request.Context(), repair)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if drifts == nil {
		drifts = []models.StockDrift{}
	}
	c.JSON(http.StatusOK, gin.H{"repair": repair, "drifts": drifts})
}

func (h *StockHandler) readUpload(c *gin.Context, kind spreadsheet.Kind) ([]models.ImportRow, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field \"file\" is required")
		return nil, false
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		badRequest(c, "only .xlsx files are supported")
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	defer file.Close()

	rows, err := spreadsheet.ParseXLSX(file, kind)
	if err != nil {
		h.respondSpreadsheetError(c, err)
		return nil, false
	}
	return rows, true
}

type sheetRequest struct {
	Range string `json:"range" binding:"required"`
}

func (h *StockHandler) readSheet(c *gin.Context, kind spreadsheet.Kind) ([]models.ImportRow, bool) {
	if h.sheets == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "google sheets import is not configured"})
		return nil, false
	}

	var req sheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "range is required")
		return nil, false
	}

	values, err := h.sheets.ReadRange(c.Request.Context(), req.Range)
	if err != nil {
		h.logger.Error("sheet read failed", zap.String("range", req.Range), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "unable to read spreadsheet"})
		return nil, false
	}

	rows, err := spreadsheet.ParseValues(values, kind)
	if err != nil {
		h.respondSpreadsheetError(c, err)
		return nil, false
	}
	return rows, true
}

// respondSpreadsheetError treats a workbook that cannot be opened as a bad
// upload rather than a server failure.
func (h *StockHandler) respondSpreadsheetError(c *gin.Context, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.logger.Debug("unreadable spreadsheet", zap.Error(err))
		badRequest(c, "file is not a readable spreadsheet")
		return
	}
	respondError(c, h.logger, err)
}
