package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType тип банковского счета
type AccountType string

const (
	AccountSavings  AccountType = "savings"
	AccountChecking AccountType = "checking"
)

// Valid reports whether the account type is one of the known values.
func (t AccountType) Valid() bool {
	return t == AccountSavings || t == AccountChecking
}

// String returns the wire value.
func (t AccountType) String() string {
	return string(t)
}

// CollectionItem одна позиция из списка начислений
type CollectionItem struct {
	Description string  `json:"description" yaml:"description"` // Description описание позиции
	Value       float64 `json:"value" yaml:"value"`             // Value сумма (> 0)
}

// FormRecord представляет заполняемую форму целиком.
// Создается заново при каждом открытии формы, изменяется по полям
// и сериализуется один раз при отправке.
type FormRecord struct {
	AttachedFile    *AttachedFile    `json:"-"`
	Concept         string           `json:"concept" validate:"required"`
	Phone           string           `json:"phone" validate:"required"`
	IDNumber        string           `json:"idNumber" validate:"required"`
	AccountNumber   string           `json:"accountNumber" validate:"required"`
	Bank            string           `json:"bank" validate:"required"`
	AccountType     AccountType      `json:"accountType" validate:"required,oneof=savings checking"`
	City            string           `json:"city" validate:"required"`
	Department      string           `json:"department" validate:"required"`
	FirstName       string           `json:"firstName" validate:"required"`
	LastName        string           `json:"lastName" validate:"required"`
	Signature       string           `json:"signature"`
	CollectionItems []CollectionItem `json:"collectionItems"`
	Value           float64          `json:"value"`
}

// NewFormRecord возвращает форму со значениями по умолчанию
func NewFormRecord() FormRecord {
	return FormRecord{
		AccountType:     AccountSavings,
		CollectionItems: []CollectionItem{},
	}
}

// Clone returns a copy that shares no mutable state with r.
func (r FormRecord) Clone() FormRecord {
	out := r
	out.CollectionItems = make([]CollectionItem, len(r.CollectionItems))
	copy(out.CollectionItems, r.CollectionItems)
	if r.AttachedFile != nil {
		f := *r.AttachedFile
		out.AttachedFile = &f
	}
	return out
}

// FullName returns "firstName lastName" with surrounding spaces trimmed.
func (r FormRecord) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// ItemsTotal суммирует позиции в decimal, чтобы не копить ошибку float
func (r FormRecord) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.CollectionItems {
		total = total.Add(decimal.NewFromFloat(item.Value))
	}
	return total
}
