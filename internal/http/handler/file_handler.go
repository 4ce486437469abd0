package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/http/middleware"
	"github.com/straye-as/blind-quote/internal/service"
	"github.com/straye-as/blind-quote/internal/store"
)

// FileHandler exports, loads and saves quote documents
type FileHandler struct {
	session     *service.Session
	files       *service.FileService
	saves       *service.AutoSaveService
	maxUploadMB int64
	logger      *zap.Logger
}

// NewFileHandler creates a new FileHandler. saves may be nil when no
// document storage is configured.
func NewFileHandler(session *service.Session, files *service.FileService, saves *service.AutoSaveService, maxUploadMB int64, logger *zap.Logger) *FileHandler {
	return &FileHandler{
		session:     session,
		files:       files,
		saves:       saves,
		maxUploadMB: maxUploadMB,
		logger:      logger,
	}
}

type loadRequest struct {
	FileName string `json:"fileName" validate:"required"`
	Content  string `json:"content"`
	Confirm  bool   `json:"confirm"`
}

type openSavedRequest struct {
	Key     string `json:"key" validate:"required"`
	Confirm bool   `json:"confirm"`
}

// SaveResponse is returned by POST /save
type SaveResponse struct {
	Key string `json:"key"`
}

// Export godoc
// @Summary Export quote
// @Tags Files
// @Produce application/octet-stream
// @Param format path string true "Export format" Enums(json, csv, xlsx)
// @Success 200 {file} file
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /export/{format} [get]
func (h *FileHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")

	var (
		data []byte
		err  error
	)
	state := h.session.Snapshot()
	switch format {
	case service.ExtJSON:
		data, err = h.files.ExportJSON(state.QuoteData)
	case service.ExtCSV:
		data, err = h.files.ExportCSV(state.QuoteData)
	case service.ExtXLSX:
		data, err = h.files.ExportXLSX(service.BuildPrintableQuote(state, service.PrintOverrides{}), state.QuoteData)
	default:
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported export format: %s", format))
		return
	}
	if err != nil {
		middleware.LoggerFrom(r.Context(), h.logger).Error("failed to export quote",
			zap.String("format", format), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to export quote")
		return
	}

	w.Header().Set("Content-Type", service.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.files.FileName(format)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Load godoc
// @Summary Load quote file
// @Description Replaces the quote with an uploaded file. A JSON body with fileName, content and confirm is accepted as well.
// @Description Loading over a quote with data needs confirm.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "Quote file (json or csv)"
// @Param confirm formData bool false "Overwrite a quote with data"
// @Success 200 {object} service.LoadResult
// @Failure 409 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 422 {object} service.LoadResult
// @Router /load [post]
func (h *FileHandler) Load(w http.ResponseWriter, r *http.Request) {
	fileName, content, confirm, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	h.load(w, r, fileName, content, confirm)
}

func (h *FileHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool, bool) {
	limit := h.maxUploadMB << 20

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
		if err := r.ParseMultipartForm(limit); err != nil {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
			return "", nil, false, false
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
			return "", nil, false, false
		}
		defer file.Close()

		content, err := io.ReadAll(io.LimitReader(file, limit+1))
		if err != nil || int64(len(content)) > limit {
			respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
			return "", nil, false, false
		}
		confirm, _ := strconv.ParseBool(r.FormValue("confirm"))
		return header.Filename, content, confirm, true
	}

	var req loadRequest
	if !decodeJSON(w, r, &req) {
		return "", nil, false, false
	}
	return req.FileName, []byte(req.Content), req.Confirm, true
}

func (h *FileHandler) load(w http.ResponseWriter, r *http.Request, fileName string, content []byte, confirm bool) {
	var result service.LoadResult
	err := h.session.Do(func(_ *store.Store, wf *service.WorkflowService) error {
		if wf.HasData() && !confirm {
			return fmt.Errorf("%w: loading a file will overwrite the current quote", service.ErrConfirmationRequired)
		}
		result = wf.LoadFile(fileName, content)
		return nil
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log := middleware.LoggerFrom(r.Context(), h.logger)
	if !result.Success {
		log.Warn("file load failed", zap.String("file", fileName), zap.String("message", result.Message))
		respondJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	log.Info("file loaded", zap.String("file", fileName))
	respondJSON(w, http.StatusOK, result)
}

// Save godoc
// @Summary Save quote
// @Description Stores the quote in document storage under a timestamped key
// @Tags Files
// @Produce json
// @Success 201 {object} SaveResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /save [post]
func (h *FileHandler) Save(w http.ResponseWriter, r *http.Request) {
	if h.saves == nil {
		respondWithError(w, http.StatusNotFound, "Document storage is not configured")
		return
	}
	key, err := h.saves.SaveAs(r.Context())
	if err != nil {
		if !errors.Is(err, service.ErrNothingToSave) {
			middleware.LoggerFrom(r.Context(), h.logger).Error("failed to save quote", zap.Error(err))
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, SaveResponse{Key: key})
}

// ListSaved godoc
// @Summary List saved quotes
// @Tags Files
// @Produce json
// @Success 200 {array} storage.Info
// @Failure 500 {object} domain.APIError
// @Router /saved [get]
func (h *FileHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	if h.saves == nil {
		respondJSON(w, http.StatusOK, []struct{}{})
		return
	}
	infos, err := h.saves.ListSaved(r.Context())
	if err != nil {
		middleware.LoggerFrom(r.Context(), h.logger).Error("failed to list saved quotes", zap.Error(err))
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, infos)
}

// OpenSaved godoc
// @Summary Open saved quote
// @Tags Files
// @Accept json
// @Produce json
// @Param request body openSavedRequest true "Storage key"
// @Success 200 {object} service.LoadResult
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 422 {object} service.LoadResult
// @Router /saved/open [post]
func (h *FileHandler) OpenSaved(w http.ResponseWriter, r *http.Request) {
	var req openSavedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.saves == nil {
		respondWithError(w, http.StatusNotFound, "Document storage is not configured")
		return
	}
	content, err := h.saves.OpenSaved(r.Context(), req.Key)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	name := req.Key[strings.LastIndex(req.Key, "/")+1:]
	h.load(w, r, name, content, req.Confirm)
}
