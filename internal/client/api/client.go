package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/iudanet/signform/pkg/api"
)

// StatusError ответ сервера с кодом вне диапазона 2xx
type StatusError struct {
	Message    string // поле error из тела ответа, пусто если тело не JSON
	Details    string // поле details из тела ответа
	StatusCode int
}

func (e *StatusError) Error() string {
	switch {
	case e.Message != "" && e.Details != "":
		return fmt.Sprintf("server error (%d): %s: %s", e.StatusCode, e.Message, e.Details)
	case e.Message != "":
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
}

// UserMessage возвращает текст для пользователя: сообщение сервера
// и детали, если они есть
func (e *StatusError) UserMessage() string {
	if e.Details != "" && e.Message != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// NetworkError сбой транспорта или неразбираемый успешный ответ
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Client представляет HTTP клиент для отправки формы на сервер
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент.
// Таймаут не задается: отмена только через контекст вызывающего.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// Submit отправляет форму на сервер одним POST запросом, без повторов
func (c *Client) Submit(ctx context.Context, req api.SubmitRequest) (*api.SubmitResponse, error) {
	var resp api.SubmitResponse
	if err := c.doRequest(ctx, http.MethodPost, api.SubmitPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health запрашивает состояние сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, api.HealthPath, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			statusErr.Message = errResp.Error
			if statusErr.Message == "" {
				statusErr.Message = errResp.Message
			}
			statusErr.Details = errResp.Details
		}
		return statusErr
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &NetworkError{Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}

	return nil
}
