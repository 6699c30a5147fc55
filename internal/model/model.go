// Package model defines the domain models for the practice journal.
package model

// Model is the interface that all database models must implement.
type Model interface {
	// SetKey sets the database key for this model.
	SetKey(key string)
	// GetKey returns the database key for this model.
	GetKey() string
}

// KeyPrefix constants for database key generation.
// Every key lives under the "ashtanga_" namespace.
const (
	Namespace = "ashtanga_"

	PrefixRecord  = Namespace + "record:"
	PrefixOption  = Namespace + "option:"
	PrefixPending = Namespace + "pending:"

	KeyProfile   = Namespace + "profile"
	KeyTimer     = Namespace + "timer"
	KeySyncMeta  = Namespace + "sync_meta"
	KeySyncLogs  = Namespace + "sync_logs"
	KeyExportLog = Namespace + "export_logs"
	KeySettings  = Namespace + "settings"
)
