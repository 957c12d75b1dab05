package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/services"
)

// multipartSlack is the allowance for multipart boundaries and part headers
// on top of the file size limit.
const multipartSlack = 64 << 10

// FileHandler handles spreadsheet upload and the caller's own datasets.
type FileHandler struct {
	fileService services.FileServicer
	maxBytes    int64
	logger      *zap.SugaredLogger
}

// NewFileHandler creates a new FileHandler. maxBytes bounds the uploaded file.
func NewFileHandler(fileService services.FileServicer, maxBytes int64, logger *zap.SugaredLogger) *FileHandler {
	return &FileHandler{fileService: fileService, maxBytes: maxBytes, logger: logger}
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	Message string `json:"message"`
	services.UploadResult
}

// Upload handles spreadsheet ingestion.
// @Summary     Upload a spreadsheet
// @Description Parse an .xlsx, .xlsm or .csv file and store it as a dataset owned by the caller
// @Tags        files
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "Spreadsheet file"
// @Success     201 {object} UploadResponse "Dataset created"
// @Failure     400 {object} ErrorResponse "No file, unsupported format, too large or malformed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /upload [post]
func (h *FileHandler) Upload(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	bodyLimit := h.maxBytes + multipartSlack
	if c.Request.ContentLength > bodyLimit {
		respondWithError(c, h.logger, apperrors.ErrPayloadTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(c, h.logger, apperrors.ErrPayloadTooLarge)
			return
		}
		respondWithError(c, h.logger, apperrors.ErrNoFile)
		return
	}
	if header.Size > h.maxBytes {
		respondWithError(c, h.logger, apperrors.ErrPayloadTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		respondWithError(c, h.logger, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	result, err := h.fileService.Upload(c.Request.Context(), userID, header.Filename, file)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		Message:      "File uploaded and processed successfully",
		UploadResult: *result,
	})
}

// ListFiles handles listing the caller's datasets.
// @Summary     List my files
// @Description List summaries of the caller's datasets, newest first
// @Tags        files
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.DatasetSummary "Dataset summaries"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /files [get]
func (h *FileHandler) ListFiles(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	files, err := h.fileService.ListFiles(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, files)
}

// GetFile handles fetching one of the caller's datasets.
// @Summary     Get my file
// @Description Get a dataset with its rows. Datasets owned by someone else are reported as not found.
// @Tags        files
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Dataset ID"
// @Success     200 {object} models.Dataset "Dataset"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "File not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /files/{id} [get]
func (h *FileHandler) GetFile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	ds, err := h.fileService.GetFile(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ds)
}

// DeleteFile handles deleting one of the caller's datasets.
// @Summary     Delete my file
// @Description Delete a dataset owned by the caller
// @Tags        files
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Dataset ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "File not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /files/{id} [delete]
func (h *FileHandler) DeleteFile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	if err := h.fileService.DeleteFile(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "File deleted successfully"})
}
