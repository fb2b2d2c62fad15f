package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notaspese/internal/core"
	"notaspese/internal/storage/document"
)

// WeekClosedMessage carries the ledger of a week that was just closed with
// "start new week". Document is the ledger document as stored remotely.
type WeekClosedMessage struct {
	ID       uuid.UUID       `json:"id"`
	Week     int             `json:"week"`
	Year     int             `json:"year"`
	Entries  int             `json:"entries"`
	Total    string          `json:"total"`
	ClosedAt time.Time       `json:"closed_at"`
	Document json.RawMessage `json:"document"`
}

// NewWeekClosedMessage snapshots entries. The week is the one of the first
// inserted entry.
func NewWeekClosedMessage(entries []core.Entry, total core.Money) (*WeekClosedMessage, error) {
	if len(entries) == 0 {
		return nil, core.ErrEmptyLedger
	}
	doc, err := document.Encode(entries)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	week, year := entries[0].Date.Week()
	return &WeekClosedMessage{
		ID:       uuid.New(),
		Week:     week,
		Year:     year,
		Entries:  len(entries),
		Total:    total.String(),
		ClosedAt: time.Now().UTC(),
		Document: doc,
	}, nil
}

// LedgerEntries decodes the carried document.
func (m *WeekClosedMessage) LedgerEntries() ([]core.Entry, error) {
	return document.Decode(m.Document)
}

// ToJSON converts the message to JSON bytes
func (m *WeekClosedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func WeekClosedMessageFromJSON(data []byte) (*WeekClosedMessage, error) {
	var msg WeekClosedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == uuid.Nil {
		return nil, errors.New("message without id")
	}
	return &msg, nil
}
