// Package events carries change notifications for the persisted tables so
// read models can re-derive themselves from the latest snapshot.
package events

import (
	"context"
	"time"
)

// Table names as stored.
const (
	TableMembers       = "members"
	TableCircles       = "circles"
	TableCircleMembers = "circle_members"
	TableRounds        = "rounds"
	TableTransactions  = "transactions"
	TableNotifications = "notifications"
)

var Tables = []string{
	TableMembers, TableCircles, TableCircleMembers,
	TableRounds, TableTransactions, TableNotifications,
}

const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
	// OpResync means changes may have been missed; subscribers should
	// rebuild from the store.
	OpResync = "RESYNC"
)

type Change struct {
	Table string    `json:"table"`
	Op    string    `json:"op"`
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
}

type Handler func(Change)

type Publisher interface {
	Publish(ctx context.Context, changes ...Change) error
}

// Bus is the subscribeToChanges side of the store.
type Bus interface {
	Publisher
	Subscribe(tables []string, fn Handler) (cancel func())
	Close() error
}

func NewChange(table, op, id string) Change {
	return Change{Table: table, Op: op, ID: id, At: time.Now().UTC()}
}
