package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/iudanet/signform/internal/models"
)

const (
	// SubmitPath путь отправки формы (его использует браузерная форма)
	SubmitPath = "/api/submit-form"
	// SubmissionsPath версионированный алиас SubmitPath
	SubmissionsPath = "/api/v1/submissions"
	// HealthPath путь health check
	HealthPath = "/api/v1/health"
)

// SubmitRequest представляет тело POST запроса с данными формы.
// CollectionItems передается JSON-строкой внутри JSON (двойное кодирование),
// Signature содержит data URL с PNG подписи.
type SubmitRequest struct {
	Concept         string       `json:"concept" validate:"required"`
	Value           LooseNumber  `json:"value"`
	Phone           string       `json:"phone"`
	IDNumber        string       `json:"idNumber"`
	AccountNumber   string       `json:"accountNumber"`
	Bank            string       `json:"bank"`
	AccountType     string       `json:"accountType"`
	City            string       `json:"city"`
	Department      string       `json:"department"`
	FirstName       string       `json:"firstName" validate:"required"`
	LastName        string       `json:"lastName" validate:"required"`
	CollectionItems EncodedItems `json:"collectionItems"`
	Signature       string       `json:"signature"`
}

// SubmitResponse ответ на успешное сохранение записи
type SubmitResponse struct {
	Message  string `json:"message,omitempty"`  // человекочитаемое сообщение
	RecordID string `json:"recordId,omitempty"` // идентификатор записи во внешнем хранилище
	Success  bool   `json:"success"`
}

// NewSubmitRequest builds the wire payload from a form record. The signature
// argument replaces whatever the record carries in its Signature field.
func NewSubmitRequest(r models.FormRecord, signature string) (SubmitRequest, error) {
	items, err := EncodeCollectionItems(r.CollectionItems)
	if err != nil {
		return SubmitRequest{}, err
	}

	return SubmitRequest{
		Concept:         r.Concept,
		Value:           LooseNumber(strconv.FormatFloat(r.Value, 'f', -1, 64)),
		Phone:           r.Phone,
		IDNumber:        r.IDNumber,
		AccountNumber:   r.AccountNumber,
		Bank:            r.Bank,
		AccountType:     r.AccountType.String(),
		City:            r.City,
		Department:      r.Department,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		CollectionItems: items,
		Signature:       signature,
	}, nil
}

// EncodedItems список позиций, закодированный в JSON-строку
type EncodedItems string

// EncodeCollectionItems кодирует список позиций в строку. Пустой список дает "[]".
func EncodeCollectionItems(items []models.CollectionItem) (EncodedItems, error) {
	if items == nil {
		items = []models.CollectionItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode collection items: %w", err)
	}
	return EncodedItems(b), nil
}

// Decode разбирает строку обратно в список позиций
func (e EncodedItems) Decode() ([]models.CollectionItem, error) {
	if e == "" {
		return []models.CollectionItem{}, nil
	}
	var items []models.CollectionItem
	if err := json.Unmarshal([]byte(e), &items); err != nil {
		return nil, fmt.Errorf("failed to decode collection items: %w", err)
	}
	return items, nil
}

// UnmarshalJSON принимает как строку (двойное кодирование), так и обычный
// JSON массив; массив сохраняется в компактном строковом виде.
func (e *EncodedItems) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*e = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = EncodedItems(s)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return err
		}
		*e = EncodedItems(buf.String())
	}
	return nil
}

// LooseNumber хранит исходный текст поля value. Браузерная форма присылает
// строку, другие клиенты число; приведение к float делает сервер.
type LooseNumber string

// MarshalJSON пишет число без кавычек, если текст является числом
func (n LooseNumber) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseFloat(string(n), 64); err == nil && json.Valid([]byte(n)) {
		return []byte(n), nil
	}
	return json.Marshal(string(n))
}

// UnmarshalJSON принимает строку, число или null
func (n *LooseNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*n = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = LooseNumber(s)
	default:
		*n = LooseNumber(b)
	}
	return nil
}
