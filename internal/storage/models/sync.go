package models

import "time"

// ConnectionStatus is the passive indicator shown for the remote store link.
type ConnectionStatus string

const (
	ConnectionOnline  ConnectionStatus = "online"
	ConnectionOffline ConnectionStatus = "offline"
	ConnectionSyncing ConnectionStatus = "syncing"
)

// DataSource records where the current in-memory collections came from.
type DataSource string

const (
	SourceRemote DataSource = "remote"
	SourceCache  DataSource = "cache"
	SourceSeed   DataSource = "seed"
	SourceNone   DataSource = "none"
)

// SyncResult summarises a full fetch from the remote store.
type SyncResult struct {
	Source       DataSource `json:"source"`
	Contacts     int        `json:"contacts"`
	TimeOff      int        `json:"time_off"`
	Procedures   int        `json:"procedures"`
	Bootstrapped bool       `json:"bootstrapped"`
	Deferred     bool       `json:"deferred"`
	Error        error      `json:"-"`
	SyncedAt     time.Time  `json:"synced_at"`
}

// SyncStatus is the externally visible state of the sync layer.
type SyncStatus struct {
	Connection ConnectionStatus `json:"connection"`
	Source     DataSource       `json:"source"`
	LastSyncAt *time.Time       `json:"last_sync_at,omitempty"`
	LastError  string           `json:"last_error,omitempty"`
	Revision   uint64           `json:"revision"`
	Pending    int              `json:"pending_writes"`
	// Deferred is set while a resync is postponed behind undelivered writes.
	Deferred bool `json:"resync_deferred"`
}
