package outbox

import (
	"context"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/account"
)

type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
)

type Kind int

const (
	KindUserRegistered Kind = 1
	KindUserDeleted    Kind = 2
	KindTokenRevoked   Kind = 3
)

func KindOf(t account.EventType) (Kind, bool) {
	switch t {
	case account.EventUserRegistered:
		return KindUserRegistered, true
	case account.EventUserDeleted:
		return KindUserDeleted, true
	case account.EventTokenRevoked:
		return KindTokenRevoked, true
	}
	return 0, false
}

func (k Kind) String() string {
	switch k {
	case KindUserRegistered:
		return "user_registered"
	case KindUserDeleted:
		return "user_deleted"
	case KindTokenRevoked:
		return "token_revoked"
	}
	return "unknown"
}

type Message struct {
	IdempotencyKey string
	Kind           Kind
	Data           []byte
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Tracestate     string
	Traceparent    string
	Baggage        string
}

type Repository interface {
	Enqueue(ctx context.Context, key string, kind Kind, data []byte) error

	PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]Message, error)

	MarkSuccess(ctx context.Context, keys []string) error
}

type KindHandler func(ctx context.Context, data []byte) error

type GlobalHandler func(kind Kind) (KindHandler, error)
