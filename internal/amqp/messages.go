package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// EventOperationCategorized is the routing type carried in the AMQP Type header.
const EventOperationCategorized = "operation.categorized"

var ErrInvalidMessage = errors.New("invalid operation event")

// OperationCategorizedMessage announces that an operation received a category.
// Consumers re-read the operation from the store if they need more than the ids.
type OperationCategorizedMessage struct {
	OperationID  int64     `json:"operation_id"`
	CategoryCode string    `json:"category_code"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewOperationCategorizedMessage creates a message stamped with at, or now when at is zero.
func NewOperationCategorizedMessage(operationID int64, categoryCode string, at time.Time) *OperationCategorizedMessage {
	if at.IsZero() {
		at = time.Now()
	}
	return &OperationCategorizedMessage{
		OperationID:  operationID,
		CategoryCode: categoryCode,
		Timestamp:    at.UTC(),
	}
}

func (m *OperationCategorizedMessage) Validate() error {
	if m.OperationID <= 0 || m.CategoryCode == "" {
		return ErrInvalidMessage
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *OperationCategorizedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// OperationCategorizedMessageFromJSON decodes and validates a message body.
func OperationCategorizedMessageFromJSON(data []byte) (*OperationCategorizedMessage, error) {
	var msg OperationCategorizedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
