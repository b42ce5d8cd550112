package form

import (
	"errors"
	"strings"
)

// Сообщения, которые видит пользователь
const (
	MsgSubmitted         = "Formulario enviado con éxito"
	MsgSignatureRequired = "Por favor, añade tu firma"
	MsgRequiredFields    = "Por favor, completa los campos requeridos"
	MsgSendFailed        = "Error al enviar el formulario"
	MsgProcessFailed     = "Error al procesar el formulario"
)

var (
	// ErrBusy форма заблокирована на время отправки
	ErrBusy = errors.New("form is being submitted")
	// ErrUnknownField поле с таким именем в форме отсутствует
	ErrUnknownField = errors.New("unknown form field")
)

// LocalValidationError форма не прошла проверку на клиенте, запрос не отправлялся
type LocalValidationError struct {
	Message string
	Fields  []string // пусто, если не хватает только подписи
}

func (e *LocalValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// SubmitError отправка завершилась неудачей на сервере или в сети
type SubmitError struct {
	Err     error
	Message string
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
