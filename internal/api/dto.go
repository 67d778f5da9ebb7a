package api

import "github.com/starford/gebo/internal/syncer"

// SyncDocumentRequest is the request body for syncing a single document.
type SyncDocumentRequest struct {
	Path string `json:"path" example:"notes/hello.md" validate:"required"`
}

// ImportRequest is the request body for a bulk import.
type ImportRequest struct {
	SpaceID  string   `json:"space_id" example:"sp-1"`
	TypeKeys []string `json:"type_keys" example:"note,task"`
	Mode     string   `json:"mode" example:"safe"`
}

// ImportObjectRequest is the request body for importing one object.
type ImportObjectRequest struct {
	SpaceID  string `json:"space_id" example:"sp-1"`
	ObjectID string `json:"object_id" example:"obj-123" validate:"required"`
	Mode     string `json:"mode" example:"safe"`
}

// ImportObjectResponse reports where an imported object landed.
type ImportObjectResponse struct {
	Path    string `json:"path" example:"notes/Hello.md"`
	Created bool   `json:"created"`
}

// RemoteStatus describes remote API reachability.
type RemoteStatus struct {
	Reachable bool `json:"reachable"`
	Spaces    int  `json:"spaces"`
}

// StatusResponse is the control-plane status summary.
type StatusResponse struct {
	Documents int          `json:"documents"`
	Synced    int          `json:"synced"`
	Remote    RemoteStatus `json:"remote"`
}

// SyncStats is the bulk sync summary (aliased from the domain layer).
type SyncStats = syncer.SyncStats

// ImportStats is the bulk import summary (aliased from the domain layer).
type ImportStats = syncer.ImportStats
