package model

// SyncStatus is derived from a post's timestamps and never stored.
type SyncStatus string

const (
	StatusUnsynced SyncStatus = "unsynced"
	StatusSynced   SyncStatus = "synced"
	StatusStale    SyncStatus = "stale"
)

func (s SyncStatus) String() string {
	return string(s)
}
