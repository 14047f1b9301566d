// src/handlers/upload_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/security/validation"
	"github.com/cgscacau/yieldlab/src/services"
	"github.com/cgscacau/yieldlab/src/utils"
)

// UploadHandler imports broker statements, either pasted as JSON or sent as
// a multipart file.
type UploadHandler struct {
	service       services.PortfolioService
	maxUploadSize int64
}

func NewUploadHandler(service services.PortfolioService, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{service: service, maxUploadSize: maxUploadSize}
}

var errMissingFile = errors.New("arquivo não enviado no campo 'file'")

type importRequest struct {
	PortfolioID string `json:"portfolioId"`
	CSVData     string `json:"csvData"`
	Commit      bool   `json:"commit"`
}

func (h *UploadHandler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		req importRequest
		err error
	)
	if mediaType == "multipart/form-data" {
		req, err = h.readMultipart(r)
	} else {
		err = json.NewDecoder(r.Body).Decode(&req)
	}
	if err != nil {
		logger.FromContext(r.Context()).Warn("Rejected CSV import request", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PortfolioID == "" || strings.TrimSpace(req.CSVData) == "" {
		utils.SendJSONError(w, "portfolioId e csvData são obrigatórios", http.StatusBadRequest)
		return
	}

	result, err := h.service.ImportCSV(r.Context(), userID, req.PortfolioID, req.CSVData, req.Commit)
	if err != nil {
		sendServiceError(w, r, err, "Erro ao importar CSV")
		return
	}
	msg := fmt.Sprintf("%d transações importadas", result.Total)
	if req.Commit {
		msg = fmt.Sprintf("%d transações importadas, %d gravadas", result.Total, result.Created)
	}
	utils.SendJSONMessage(w, result, msg, http.StatusOK)
}

// readMultipart pulls portfolioId, commit and the statement file out of a
// form upload. The file is checked by declared type and by content.
func (h *UploadHandler) readMultipart(r *http.Request) (importRequest, error) {
	var req importRequest
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return req, fmt.Errorf("falha ao processar o formulário ou arquivo maior que %d MB", h.maxUploadSize/(1024*1024))
	}
	req.PortfolioID = r.FormValue("portfolioId")
	req.Commit, _ = strconv.ParseBool(r.FormValue("commit"))

	file, header, err := r.FormFile("file")
	if err != nil {
		return req, errMissingFile
	}
	defer file.Close()

	declared, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err := validation.ValidateClientContentType(declared); err != nil {
		return req, err
	}
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		return req, err
	}
	raw, err := io.ReadAll(file)
	if err != nil {
		return req, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	logger.FromContext(r.Context()).Info("Statement upload validated", "filename", header.Filename, "size", header.Size)
	req.CSVData = string(raw)
	return req, nil
}
