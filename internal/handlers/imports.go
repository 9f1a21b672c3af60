package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/importusers/import-service/internal/importer"
	"github.com/importusers/import-service/internal/storage"
)

const (
	// DataFileField is the multipart field carrying the spreadsheet or CSV file
	DataFileField = "datafile"
	// FormatFileField is the multipart field carrying the XML format descriptor
	FormatFileField = "formatfile"
	// ModeField selects preview, review or import
	ModeField = "mode"
)

// ImportHandler serves import runs over HTTP
type ImportHandler struct {
	importer  *importer.Importer
	storage   storage.Storage
	imports   *semaphore.Weighted
	maxUpload int64
	logger    *zerolog.Logger
}

// NewImportHandler creates an ImportHandler. Runs in import mode are
// serialized; preview and review runs are not.
func NewImportHandler(imp *importer.Importer, s storage.Storage, maxUpload int64, logger *zerolog.Logger) *ImportHandler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ImportHandler{
		importer:  imp,
		storage:   s,
		imports:   semaphore.NewWeighted(1),
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// CreateImport runs an import over uploaded files
// @Summary Run an import
// @Description Uploads a data file and a format file and runs them in preview, review or import mode. Any other form field is an import option overriding the format file settings.
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param datafile formData file true "Spreadsheet or CSV data file"
// @Param formatfile formData file true "XML format file"
// @Param mode formData string false "Run mode" Enums(preview, review, import) default(preview)
// @Success 200 {object} importer.Report
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 413 {object} map[string]string "Upload too large"
// @Failure 503 {object} map[string]string "Request cancelled while waiting"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/imports [post]
func (h *ImportHandler) CreateImport(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid multipart form: %v", err)})
		return
	}

	mode, err := importer.ParseMode(firstValue(form.Value[ModeField]))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uploads := make(map[string]*multipart.FileHeader, 2)
	for _, name := range []string{DataFileField, FormatFileField} {
		fh := firstFile(form.File[name])
		if fh == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is required", name)})
			return
		}
		uploads[name] = fh
	}

	ctx := c.Request.Context()
	runID := uuid.New().String()
	dataKey, err := h.stage(c, runID, storage.KindData, uploads[DataFileField])
	if err != nil {
		return
	}
	formatKey, err := h.stage(c, runID, storage.KindFormat, uploads[FormatFileField])
	if err != nil {
		h.purge(runID)
		return
	}

	overrides := make(map[string]string)
	for name, values := range form.Value {
		if name == ModeField {
			continue
		}
		overrides[name] = firstValue(values)
	}

	if mode == importer.ModeImport {
		if err := h.imports.Acquire(ctx, 1); err != nil {
			h.purge(runID)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled while waiting for a running import"})
			return
		}
		defer h.imports.Release(1)
	}

	report, err := h.importer.RunStaged(ctx, importer.StagedRequest{
		RunID:     runID,
		Mode:      mode,
		DataKey:   dataKey,
		FormatKey: formatKey,
		Overrides: overrides,
	})
	if err != nil {
		if errors.Is(err, importer.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error().Err(err).Str("run_id", runID).Msg("Import run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("import failed: %v", err)})
		return
	}

	c.JSON(http.StatusOK, report)
}

// stage stores one upload, writing the error response itself on failure
func (h *ImportHandler) stage(c *gin.Context, runID, kind string, fh *multipart.FileHeader) (string, error) {
	content, err := readFormFile(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to read %s file: %v", kind, err)})
		return "", err
	}
	key, err := storage.Stage(c.Request.Context(), h.storage, runID, kind, fh.Filename, content)
	if err != nil {
		h.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to stage upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
		return "", err
	}
	return key, nil
}

func (h *ImportHandler) purge(runID string) {
	if err := storage.Purge(context.Background(), h.storage, runID); err != nil {
		h.logger.Warn().Err(err).Str("run_id", runID).Msg("Failed to purge staged uploads")
	}
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func firstFile(files []*multipart.FileHeader) *multipart.FileHeader {
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
