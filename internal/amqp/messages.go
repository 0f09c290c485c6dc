package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"gastos/internal/core"
)

type MessageType string

const (
	// TypeSyncRequest asks a worker to synchronize the workbook.
	TypeSyncRequest MessageType = "sync_request"
	// TypeVariableExpense asks a worker to write a stored variable expense
	// into its month sheet.
	TypeVariableExpense MessageType = "variable_expense"
)

// Message is the envelope published on the sync queue. The worker fetches
// any referenced record from the database.
type Message struct {
	ID        string         `json:"id"`
	Type      MessageType    `json:"type"`
	MonthMode core.MonthMode `json:"month_mode,omitempty"`
	ExpenseID string         `json:"expense_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewSyncRequestMessage(mode core.MonthMode) *Message {
	return &Message{ID: uuid.NewString(), Type: TypeSyncRequest, MonthMode: mode, Timestamp: time.Now()}
}

func NewVariableExpenseMessage(expenseID string) *Message {
	return &Message{ID: uuid.NewString(), Type: TypeVariableExpense, ExpenseID: expenseID, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes and validates a message.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case TypeSyncRequest:
		if _, err := core.ParseMonthMode(string(msg.MonthMode)); err != nil {
			return nil, err
		}
	case TypeVariableExpense:
		if msg.ExpenseID == "" {
			return nil, errors.New("variable expense message without expense_id")
		}
	default:
		return nil, errors.New("unknown message type: " + string(msg.Type))
	}
	return &msg, nil
}
