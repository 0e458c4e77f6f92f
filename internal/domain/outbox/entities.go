package outbox

import (
	"encoding/json"
	"time"
)

// Event types emitted by the ledger.
const (
	TypeWalletCredited    = "wallet.credited"
	TypeWalletDebited     = "wallet.debited"
	TypeLoanFunded        = "loan.funded"
	TypeRepaymentSettled  = "repayment.settled"
	TypeLoanDecided       = "loan.decided"
	TypeScheduleGenerated = "schedule.generated"
)

// Event is written in the same transaction as the change it describes and
// later relayed to the message bus by the poller.
type Event struct {
	ID          uint64     `gorm:"primaryKey"`
	Aggregate   string     `gorm:"size:32;not null"`
	AggregateID string     `gorm:"size:64;not null"`
	EventType   string     `gorm:"size:64;not null"`
	Payload     string     `gorm:"type:text;not null"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index:idx_outbox_pending"`
	Processed   bool       `gorm:"not null;default:false;index:idx_outbox_pending"`
	ProcessedAt *time.Time
}

func (Event) TableName() string { return "event_outbox" }

func New(aggregate, aggregateID, eventType string, payload any) (*Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Aggregate: aggregate, AggregateID: aggregateID, EventType: eventType, Payload: string(b)}, nil
}
