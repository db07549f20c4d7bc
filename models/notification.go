package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotifyInfo    NotificationType = "INFO"
	NotifySuccess NotificationType = "SUCCESS"
	NotifyWarning NotificationType = "WARNING"
)

type Notification struct {
	Base

	MemberID string           `gorm:"size:36;not null;index" json:"member_id"`
	Title    string           `gorm:"size:128;not null" json:"title"`
	Message  string           `gorm:"size:512" json:"message"`
	Type     NotificationType `gorm:"size:8;not null;default:INFO" json:"type"`
	IsRead   bool             `gorm:"default:false;index" json:"is_read"`
	Ref      string           `gorm:"size:128;index" json:"ref,omitempty"`
	Payload  datatypes.JSON   `json:"payload,omitempty"`
}

// NotificationPayload is the structured part of a settlement or reminder
// notification, for clients that link to the circle or prefill a payment.
type NotificationPayload struct {
	CircleID string          `json:"circle_id"`
	Round    int             `json:"round"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  string          `json:"due_date,omitempty"`
}

func EncodeNotificationPayload(p NotificationPayload) (datatypes.JSON, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode notification payload: %w", err)
	}
	return datatypes.JSON(b), nil
}

// DecodePayload reports false for notifications without one.
func (n Notification) DecodePayload() (NotificationPayload, bool, error) {
	var p NotificationPayload
	if len(n.Payload) == 0 {
		return p, false, nil
	}
	if err := json.Unmarshal(n.Payload, &p); err != nil {
		return p, false, fmt.Errorf("decode notification payload: %w", err)
	}
	return p, true, nil
}

func (Notification) TableName() string {
	return "notifications"
}

// MigrateModels lists every table owned by the application.
var MigrateModels = []any{
	&Member{},
	&Circle{},
	&SlotMembership{},
	&Round{},
	&Transaction{},
	&Notification{},
}
