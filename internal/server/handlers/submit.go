package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/iudanet/signform/internal/server/storage"
	"github.com/iudanet/signform/internal/validation"
	"github.com/iudanet/signform/pkg/api"
)

// MaxRequestBody ограничивает тело запроса; подпись в data URL занимает сотни килобайт
const MaxRequestBody = 10 << 20

// Сообщения, которые видит пользователь формы
const (
	MsgSaved           = "Datos guardados correctamente"
	MsgMissingFields   = "Faltan campos requeridos"
	MsgStoreFailed     = "Error al guardar en Airtable"
	MsgInvalidBody     = "Solicitud inválida"
	MsgBodyTooLarge    = "Solicitud demasiado grande"
	MsgUnknownStoreErr = "Error desconocido"
)

// Колонки таблицы во внешнем хранилище
const (
	ColConcept       = "Concepto"
	ColValue         = "Valor"
	ColPhone         = "Telefono"
	ColIDNumber      = "Cedula"
	ColAccountNumber = "NumeroCuenta"
	ColBank          = "Banco"
	ColAccountType   = "TipoCuenta"
	ColCity          = "Ciudad"
	ColDepartment    = "Departamento"
	ColFirstName     = "Nombres"
	ColLastName      = "Apellidos"
	ColItems         = "Items"
	ColSignature     = "Firma"
)

// SubmissionHandler принимает отправку формы и создает одну запись во внешней таблице.
// Handler не хранит состояния и безопасен для конкурентных запросов.
type SubmissionHandler struct {
	logger   *slog.Logger
	store    storage.RecordStore
	validate *validator.Validate
}

// NewSubmissionHandler создает handler поверх хранилища записей
func NewSubmissionHandler(logger *slog.Logger, store storage.RecordStore) *SubmissionHandler {
	return &SubmissionHandler{
		logger:   logger,
		store:    store,
		validate: validation.New(),
	}
}

// Submit обрабатывает POST /api/submit-form
// Проверяет обязательные поля, сохраняет запись и возвращает ее ID
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)

	// Парсим request body
	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WarnContext(ctx, "submission body too large", slog.Int64("limit", tooLarge.Limit))
			h.sendError(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge, "")
			return
		}
		h.logger.WarnContext(ctx, "failed to decode submission", slog.Any("error", err))
		h.sendError(w, http.StatusBadRequest, MsgInvalidBody, err.Error())
		return
	}

	// Проверка обязательных полей: concept, firstName, lastName
	if err := h.validate.StructCtx(ctx, req); err != nil {
		h.logger.WarnContext(ctx, "submission is missing required fields", slog.Any("fields", validation.MissingFields(err)))
		h.sendError(w, http.StatusBadRequest, MsgMissingFields, "")
		return
	}

	// Одна попытка записи, без повторов
	recordID, err := h.store.CreateRecord(ctx, toFields(req))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create record", slog.Any("error", err))
		details := err.Error()
		if details == "" {
			details = MsgUnknownStoreErr
		}
		h.sendError(w, http.StatusInternalServerError, MsgStoreFailed, details)
		return
	}

	h.logger.InfoContext(ctx, "record created",
		slog.String("record_id", recordID),
		slog.Int("signature_bytes", len(req.Signature)))

	h.sendJSON(w, api.SubmitResponse{
		Success:  true,
		Message:  MsgSaved,
		RecordID: recordID,
	}, http.StatusOK)
}

// toFields переводит поля запроса в колонки таблицы.
// Значения, кроме Valor, передаются как есть; Items остается JSON-строкой.
func toFields(req api.SubmitRequest) storage.Fields {
	return storage.Fields{
		ColConcept:       req.Concept,
		ColValue:         CoerceValue(string(req.Value)),
		ColPhone:         req.Phone,
		ColIDNumber:      req.IDNumber,
		ColAccountNumber: req.AccountNumber,
		ColBank:          req.Bank,
		ColAccountType:   req.AccountType,
		ColCity:          req.City,
		ColDepartment:    req.Department,
		ColFirstName:     req.FirstName,
		ColLastName:      req.LastName,
		ColItems:         string(req.CollectionItems),
		ColSignature:     req.Signature,
	}
}

// sendJSON отправляет JSON ответ
func (h *SubmissionHandler) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	writeJSON(h.logger, w, data, statusCode)
}

// sendError отправляет JSON ответ с ошибкой
func (h *SubmissionHandler) sendError(w http.ResponseWriter, statusCode int, message, details string) {
	h.sendJSON(w, api.ErrorResponse{
		Success: false,
		Error:   message,
		Details: details,
	}, statusCode)
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}
