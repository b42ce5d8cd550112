package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	at "github.com/mehanizm/airtable"

	"github.com/iudanet/signform/internal/server/storage"
)

// DefaultAPIURL базовый адрес REST API Airtable
const DefaultAPIURL = "https://api.airtable.com/v0"

// Config содержит параметры подключения к таблице
type Config struct {
	APIKey string
	BaseID string
	Table  string
	APIURL string
}

// Client пишет записи в одну таблицу Airtable через SDK.
type Client struct {
	table *at.Table
}

// APIError ошибка, которую вернул Airtable
type APIError struct {
	Err        error
	Type       string
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Type != "":
		return e.Type
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("airtable returned status %d", e.StatusCode)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// New создает клиент для таблицы cfg.Table в базе cfg.BaseID
func New(cfg Config) (*Client, error) {
	client := at.NewClient(cfg.APIKey)
	if cfg.APIURL != "" {
		if err := client.SetBaseURL(strings.TrimRight(cfg.APIURL, "/")); err != nil {
			return nil, fmt.Errorf("invalid airtable api url: %w", err)
		}
	}

	return &Client{table: client.GetTable(cfg.BaseID, cfg.Table)}, nil
}

// CreateRecord создает одну запись и возвращает ее ID.
// Повторных попыток нет: ошибка хранилища сразу возвращается вызывающему.
func (c *Client) CreateRecord(ctx context.Context, fields storage.Fields) (string, error) {
	// SDK не принимает контекст, поэтому отмену проверяем до запроса
	if err := ctx.Err(); err != nil {
		return "", err
	}

	created, err := c.table.AddRecords(&at.Records{
		Records: []*at.Record{{Fields: fields}},
	})
	if err != nil {
		return "", parseAPIError(err)
	}
	if created == nil || len(created.Records) == 0 || created.Records[0].ID == "" {
		return "", storage.ErrEmptyResponse
	}

	return created.Records[0].ID, nil
}

// parseAPIError достает из ошибки SDK статус и тело ответа Airtable.
// Тело бывает двух видов: {"error":{"type":"...","message":"..."}} и {"error":"NOT_FOUND"}.
func parseAPIError(err error) error {
	msg := err.Error()

	var status int
	if _, scanErr := fmt.Sscanf(msg, "status %d", &status); scanErr != nil {
		return fmt.Errorf("airtable request failed: %w", err)
	}
	apiErr := &APIError{Err: err, StatusCode: status}

	start := strings.Index(msg, "{")
	if start < 0 {
		return apiErr
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if decErr := json.NewDecoder(strings.NewReader(msg[start:])).Decode(&envelope); decErr != nil || len(envelope.Error) == 0 {
		return apiErr
	}

	var detailed struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if jsonErr := json.Unmarshal(envelope.Error, &detailed); jsonErr == nil {
		apiErr.Type = detailed.Type
		apiErr.Message = detailed.Message
		return apiErr
	}

	var code string
	if jsonErr := json.Unmarshal(envelope.Error, &code); jsonErr == nil {
		apiErr.Type = code
	}
	return apiErr
}
