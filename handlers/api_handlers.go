package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"setsplit-server-go/db"
	"setsplit-server-go/metrics"
	"setsplit-server-go/models"
	"setsplit-server-go/partition"
	"setsplit-server-go/processor"
	"setsplit-server-go/sheet"
)

// DownloadName is the file name offered for SQL downloads.
const DownloadName = "insert_students.sql"

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Store          db.Store
	Processor      *processor.Processor
	Metrics        *metrics.Collector
	Logger         *zap.Logger
	MaxUploadBytes int64
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store db.Store, proc *processor.Processor, m *metrics.Collector, logger *zap.Logger, maxUploadBytes int64) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	return &APIHandler{
		Store:          store,
		Processor:      proc,
		Metrics:        m,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
	}
}

func (h *APIHandler) fail(c *gin.Context, status int, reason, msg string) {
	h.Metrics.UploadFailed(reason)
	c.JSON(status, gin.H{"error": msg})
}

// --- Upload Handler ---

// Upload handles POST /api/upload
func (h *APIHandler) Upload(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, http.StatusRequestEntityTooLarge, "too_large", "File too large")
			return
		}
		h.Logger.Info("Upload without file", zap.Error(err))
		h.fail(c, http.StatusBadRequest, "bad_request", "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.fail(c, http.StatusBadRequest, "bad_request", "No file selected")
		return
	}
	if !sheet.IsSupported(header.Filename) {
		h.fail(c, http.StatusBadRequest, "bad_request", sheet.ErrUnsupportedFormat.Error())
		return
	}

	log := h.Logger.With(zap.String("filename", header.Filename), zap.Int64("size", header.Size))
	log.Info("Received file upload")

	table, err := sheet.Decode(file, sheet.DefaultOptions(log))
	if err != nil {
		log.Error("Error reading spreadsheet", zap.Error(err))
		h.fail(c, http.StatusBadRequest, "bad_request", "Failed to read spreadsheet: "+err.Error())
		return
	}

	out, err := h.Processor.Process(table)
	if err != nil {
		var schemaErr *partition.SchemaError
		if errors.As(err, &schemaErr) {
			h.fail(c, http.StatusBadRequest, "schema", schemaErr.Error())
			return
		}
		log.Error("Error processing file", zap.Error(err))
		h.fail(c, http.StatusInternalServerError, "internal", "Failed to process file")
		return
	}

	result := &models.Result{
		ID:              db.NewResultID(),
		CreatedAt:       time.Now().UTC(),
		SQL:             out.SQL,
		Summary:         out.Summary,
		TotalStatements: len(out.Statements),
	}
	if err := h.Store.Save(c.Request.Context(), result); err != nil {
		log.Error("Error saving result", zap.Error(err))
		h.fail(c, http.StatusInternalServerError, "internal", "Failed to store generated SQL")
		return
	}

	h.Metrics.UploadSucceeded()
	log.Info("SQL generated", zap.String("resultId", result.ID), zap.Int("statements", result.TotalStatements))
	c.JSON(http.StatusOK, gin.H{
		"message":            "File processed successfully",
		"result_id":          result.ID,
		"distribution_info":  result.Summary,
		"sql_file_generated": true,
		"total_statements":   result.TotalStatements,
	})
}

// --- Result Handlers ---

// loadResult fetches :resultId and writes the error response when it fails
func (h *APIHandler) loadResult(c *gin.Context) (*models.Result, bool) {
	id := c.Param("resultId")
	result, err := h.Store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrResultNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No processed data found for this result"})
			return nil, false
		}
		h.Logger.Error("Error loading result", zap.String("resultId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load result"})
		return nil, false
	}
	return result, true
}

// GetResult handles GET /api/results/:resultId
func (h *APIHandler) GetResult(c *gin.Context) {
	result, ok := h.loadResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// DownloadSQL handles GET /api/results/:resultId/sql
func (h *APIHandler) DownloadSQL(c *gin.Context) {
	result, ok := h.loadResult(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+DownloadName+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(result.SQL))
}

// GetSectionDistribution handles GET /api/results/:resultId/distribution/:section
func (h *APIHandler) GetSectionDistribution(c *gin.Context) {
	result, ok := h.loadResult(c)
	if !ok {
		return
	}
	section := c.Param("section")
	dist, found := result.Summary.SetDistribution[section]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Section not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"section":      section,
		"distribution": dist,
	})
}

// --- Ping Handler ---

// Ping handles GET /api/ping and reports whether the result store answers
func (h *APIHandler) Ping(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		h.Logger.Warn("Store ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Pong!", "store": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pong!", "store": "ok"})
}
