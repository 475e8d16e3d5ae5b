package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"

	// UncategorizedTag receives the full amount of every transaction recorded without tags.
	UncategorizedTag = "Uncategorized"
)

var (
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAmount          = errors.New("transaction amount must not be negative")
	ErrInvalidCurrency        = errors.New("currency must be a 3-letter code")
	ErrProfileRequired        = errors.New("profile is required")
	ErrOccurredAtRequired     = errors.New("occurred_at is required")
)

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Transaction is a single income or expense record owned by a profile.
type Transaction struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Profile     string    `gorm:"type:varchar(100);not null;index" json:"profile"`
	Type        string    `gorm:"type:varchar(10);not null" json:"type"`
	AmountMinor int64     `gorm:"not null" json:"amount_minor"`
	Currency    string    `gorm:"type:varchar(3);not null;index" json:"currency"`
	Tags        TagList   `gorm:"type:text" json:"tags"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	OccurredAt  time.Time `gorm:"not null;index" json:"occurred_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook for Transaction
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	t.Normalize()

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	return t.Validate()
}

// Normalize uppercases the currency, trims the profile, de-duplicates tags and stores OccurredAt in UTC.
func (t *Transaction) Normalize() {
	t.Profile = strings.TrimSpace(t.Profile)
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	t.Type = strings.ToLower(strings.TrimSpace(t.Type))
	t.Tags = t.Tags.Normalized()
	if !t.OccurredAt.IsZero() {
		t.OccurredAt = t.OccurredAt.UTC()
	}
}

// Validate validates the transaction fields
func (t *Transaction) Validate() error {
	if t.Profile == "" {
		return ErrProfileRequired
	}

	if !IsValidTransactionType(t.Type) {
		return ErrInvalidTransactionType
	}

	if t.AmountMinor < 0 {
		return ErrInvalidAmount
	}

	if !IsValidCurrencyCode(t.Currency) {
		return ErrInvalidCurrency
	}

	if t.OccurredAt.IsZero() {
		return ErrOccurredAtRequired
	}

	return nil
}

// TableName returns the table name for Transaction
func (t *Transaction) TableName() string {
	return "transactions"
}

// IsValidTransactionType checks if the transaction type is valid
func IsValidTransactionType(transactionType string) bool {
	switch transactionType {
	case TransactionTypeIncome, TransactionTypeExpense:
		return true
	default:
		return false
	}
}

// IsValidCurrencyCode checks for an uppercase 3-letter code.
func IsValidCurrencyCode(code string) bool {
	return currencyCodePattern.MatchString(code)
}

// TagList is a set of tag names stored as a JSON array in a text column.
type TagList []string

// Value implements driver.Valuer interface
func (l TagList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	bytes, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	// string keeps SQLite and Postgres text columns happy
	return string(bytes), nil
}

// Scan implements sql.Scanner interface
func (l *TagList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TagList", value)
	}

	if len(raw) == 0 {
		*l = nil
		return nil
	}

	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return fmt.Errorf("failed to decode tags: %w", err)
	}
	*l = tags
	return nil
}

// Normalized trims tag names and drops blanks and duplicates, keeping first occurrence order.
func (l TagList) Normalized() TagList {
	if len(l) == 0 {
		return l
	}

	seen := make(map[string]struct{}, len(l))
	out := make(TagList, 0, len(l))
	for _, tag := range l {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
