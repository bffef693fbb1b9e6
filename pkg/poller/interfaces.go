package poller

//go:generate mockgen -destination=mock_poller.go -package=poller github.com/massapay/massa-agent/pkg/poller Clock,Ticker,NodeProbe

import (
	"context"
	"time"

	"github.com/massapay/massa-agent/pkg/eventbus"
	"github.com/massapay/massa-agent/pkg/models"
)

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// NodeProbe is the node client surface the poller needs.
type NodeProbe interface {
	IsReachable(ctx context.Context) bool
	GetNodeStatus(ctx context.Context) (*models.NodeStatus, error)
}

// StateStore reads and replaces the server state snapshot.
type StateStore interface {
	Snapshot() models.ServerState
	Update(fn func(models.ServerState) models.ServerState) models.ServerState
}

// Publisher receives node status flips.
type Publisher interface {
	Publish(ev eventbus.Event)
}
