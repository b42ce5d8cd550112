// Package form содержит контроллер формы сбора данных с подписью:
// состояние полей, список позиций, подпись и протокол отправки.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/iudanet/signform/internal/client/api"
	"github.com/iudanet/signform/internal/client/signature"
	"github.com/iudanet/signform/internal/models"
	"github.com/iudanet/signform/internal/validation"
	wire "github.com/iudanet/signform/pkg/api"
)

//go:generate moq -out submitter_mock.go . Submitter

// Submitter отправляет форму на сервер
type Submitter interface {
	Submit(ctx context.Context, req wire.SubmitRequest) (*wire.SubmitResponse, error)
}

// Имена полей, принимаемые UpdateField (совпадают с именами в JSON)
const (
	FieldConcept       = "concept"
	FieldValue         = "value"
	FieldPhone         = "phone"
	FieldIDNumber      = "idNumber"
	FieldAccountNumber = "accountNumber"
	FieldBank          = "bank"
	FieldAccountType   = "accountType"
	FieldCity          = "city"
	FieldDepartment    = "department"
	FieldFirstName     = "firstName"
	FieldLastName      = "lastName"
)

// Fields порядок полей формы
var Fields = []string{
	FieldConcept, FieldValue, FieldPhone, FieldIDNumber, FieldAccountNumber,
	FieldBank, FieldAccountType, FieldCity, FieldDepartment, FieldFirstName, FieldLastName,
}

// Controller хранит состояние формы и выполняет протокол отправки.
// Одновременно выполняется не более одной отправки; методы безопасны
// для вызова из разных горутин.
type Controller struct {
	submitter    Submitter
	surface      signature.Surface
	validate     *validator.Validate
	logger       *slog.Logger
	record       models.FormRecord
	itemDraft    models.CollectionItem
	lastSent     models.FormRecord
	errMsg       string
	lastRecordID string
	state        State
	mu           sync.Mutex
}

// NewController создает контроллер с пустой формой
func NewController(submitter Submitter, surface signature.Surface, logger *slog.Logger) *Controller {
	return &Controller{
		submitter: submitter,
		surface:   surface,
		validate:  validation.New(),
		logger:    logger,
		record:    models.NewFormRecord(),
		state:     StateIdle,
	}
}

// touch переводит Success/Failed в Idle при следующем действии пользователя.
// Сообщение об ошибке сохраняется до следующей отправки или сброса.
func (c *Controller) touch() {
	if c.state == StateSuccess || c.state == StateFailed {
		c.state = StateIdle
	}
}

// UpdateField устанавливает значение поля. Последняя запись побеждает,
// перекрестных проверок нет.
func (c *Controller) UpdateField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return ErrBusy
	}

	r := &c.record
	switch name {
	case FieldConcept:
		r.Concept = value
	case FieldValue:
		r.Value = parseAmount(value)
	case FieldPhone:
		r.Phone = value
	case FieldIDNumber:
		r.IDNumber = value
	case FieldAccountNumber:
		r.AccountNumber = value
	case FieldBank:
		r.Bank = value
	case FieldAccountType:
		r.AccountType = models.AccountType(value)
	case FieldCity:
		r.City = value
	case FieldDepartment:
		r.Department = value
	case FieldFirstName:
		r.FirstName = value
	case FieldLastName:
		r.LastName = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	c.touch()
	return nil
}

// parseAmount разбирает сумму; нечисловое или бесконечное значение дает 0
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SetItemDraft задает позицию, которая вводится в данный момент
func (c *Controller) SetItemDraft(description string, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return ErrBusy
	}
	c.itemDraft = models.CollectionItem{Description: description, Value: value}
	c.touch()
	return nil
}

// ItemDraft возвращает вводимую позицию
func (c *Controller) ItemDraft() models.CollectionItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemDraft
}

// AddItemDraft добавляет вводимую позицию в список
func (c *Controller) AddItemDraft() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addItem(c.itemDraft)
}

// AddCollectionItem добавляет позицию в конец списка, только если описание
// не пустое и сумма больше нуля. Иначе ничего не происходит и возвращается false.
func (c *Controller) AddCollectionItem(description string, value float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addItem(models.CollectionItem{Description: description, Value: value})
}

// addItem вызывается под c.mu
func (c *Controller) addItem(item models.CollectionItem) bool {
	if c.state == StateSubmitting {
		return false
	}
	c.touch()

	if item.Description == "" || !(item.Value > 0) || math.IsInf(item.Value, 0) {
		c.logger.Debug("collection item rejected",
			"description", item.Description,
			"value", item.Value)
		return false
	}

	c.record.CollectionItems = append(c.record.CollectionItems, item)
	c.itemDraft = models.CollectionItem{}
	return true
}

// ClearSignature стирает подпись. Во время отправки возвращает ErrBusy.
func (c *Controller) ClearSignature() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return ErrBusy
	}
	c.surface.Clear()
	c.touch()
	return nil
}

// AttachFile сохраняет ссылку на выбранный файл. Файл на сервер не передается.
// nil игнорируется, как пустой выбор файла.
func (c *Controller) AttachFile(f *models.AttachedFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return ErrBusy
	}
	if f != nil {
		c.record.AttachedFile = f
	}
	c.touch()
	return nil
}

// Reset возвращает форму к значениям по умолчанию, стирает подпись,
// вводимую позицию и сообщения
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return ErrBusy
	}
	c.reset()
	c.errMsg = ""
	c.lastRecordID = ""
	c.lastSent = models.FormRecord{}
	c.state = StateIdle
	return nil
}

// reset очищает данные формы, не трогая состояние отправки
func (c *Controller) reset() {
	c.record = models.NewFormRecord()
	c.itemDraft = models.CollectionItem{}
	c.surface.Clear()
}

// Submit выполняет протокол отправки: локальная проверка, один POST без
// повторов, разбор ответа. При успехе форма сбрасывается, а состояние
// Success и сообщение остаются видимыми. Таймаут не задается, отмена
// только через ctx.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrBusy
	}

	if err := c.checkLocal(ctx); err != nil {
		c.state = StateFailed
		c.errMsg = err.Message
		c.mu.Unlock()
		return err
	}

	c.state = StateSubmitting
	c.errMsg = ""
	c.lastRecordID = ""

	items := len(c.record.CollectionItems)
	req, sent, err := c.buildRequest()
	c.mu.Unlock()
	if err != nil {
		return c.finish(nil, err, sent)
	}

	c.logger.Info("submitting form",
		"concept", req.Concept,
		"items", items,
		"signature_bytes", len(req.Signature))

	resp, err := c.submitter.Submit(ctx, req)
	return c.finish(resp, err, sent)
}

// checkLocal вызывается под c.mu
func (c *Controller) checkLocal(ctx context.Context) *LocalValidationError {
	if err := c.validate.StructCtx(ctx, c.record); err != nil {
		return &LocalValidationError{
			Message: MsgRequiredFields,
			Fields:  validation.MissingFields(err),
		}
	}
	if c.surface.IsEmpty() {
		return &LocalValidationError{Message: MsgSignatureRequired}
	}
	return nil
}

// buildRequest вызывается под c.mu. Возвращает также снимок формы
// с подписью в том виде, в каком она ушла на сервер.
func (c *Controller) buildRequest() (wire.SubmitRequest, models.FormRecord, error) {
	sent := c.record.Clone()
	sig, err := c.surface.ToDataURL()
	if err != nil {
		return wire.SubmitRequest{}, sent, fmt.Errorf("failed to render signature: %w", err)
	}
	sent.Signature = sig

	req, err := wire.NewSubmitRequest(sent, sig)
	return req, sent, err
}

// finish переводит контроллер в Success или Failed по результату запроса
func (c *Controller) finish(resp *wire.SubmitResponse, err error, sent models.FormRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil && (resp == nil || !resp.Success) {
		err = &SubmitError{Message: MsgProcessFailed}
	}

	if err != nil {
		msg := failureMessage(err)
		c.state = StateFailed
		c.errMsg = msg
		c.logger.Warn("form submission failed", "error", err)

		var submitErr *SubmitError
		if errors.As(err, &submitErr) {
			return submitErr
		}
		return &SubmitError{Message: msg, Err: err}
	}

	c.reset()
	c.state = StateSuccess
	c.lastRecordID = resp.RecordID
	c.lastSent = sent
	c.logger.Info("form submitted", "record_id", resp.RecordID)
	return nil
}

// failureMessage извлекает текст для пользователя из ошибки отправки
func failureMessage(err error) string {
	var submitErr *SubmitError
	if errors.As(err, &submitErr) {
		return submitErr.Message
	}

	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		if msg := statusErr.UserMessage(); msg != "" {
			return msg
		}
		return MsgSendFailed
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgSendFailed
}

// State returns the current submission state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy сообщает, что идет отправка и поля заблокированы
func (c *Controller) Busy() bool {
	return c.State() == StateSubmitting
}

// ErrorMessage последнее сообщение об ошибке, пусто если ошибки нет
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// SuccessMessage непустое только в состоянии Success
func (c *Controller) SuccessMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSuccess {
		return ""
	}
	return MsgSubmitted
}

// LastRecordID идентификатор записи последней успешной отправки
func (c *Controller) LastRecordID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRecordID
}

// LastSubmission возвращает данные последней успешной отправки вместе с
// подписью и идентификатором записи. ok == false, если успешной отправки не было.
func (c *Controller) LastSubmission() (models.FormRecord, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastRecordID == "" {
		return models.FormRecord{}, "", false
	}
	return c.lastSent.Clone(), c.lastRecordID, true
}

// Record возвращает копию текущих данных формы
func (c *Controller) Record() models.FormRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.Clone()
}

// Items возвращает копию списка позиций
func (c *Controller) Items() []models.CollectionItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CollectionItem, len(c.record.CollectionItems))
	copy(out, c.record.CollectionItems)
	return out
}
