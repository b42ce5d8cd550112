package api

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Details string `json:"details,omitempty"` // исходное сообщение ошибки хранилища
	Message string `json:"message,omitempty"` // дополнительное сообщение
	Success bool   `json:"success"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Store   string `json:"store,omitempty"`
}
