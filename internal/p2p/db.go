package p2p

import "github.com/subnetcore/validator/internal/registry"

// ChunkLocation describes where one chunk of a stored file lives.
type ChunkLocation struct {
	UID         uint64                  `json:"uid"`
	SS58Address string                  `json:"ss58_address"`
	Connection  registry.ConnectionInfo `json:"connection"`
	ChunkUUID   string                  `json:"chunk_uuid"`
}

// Database is the local persistence collaborator. The networking core
// treats it as opaque: the DB-sync handlers consult Export and Version,
// and the user-facing layers above this module consume the rest.
type Database interface {
	CheckFileExists(userSS58, fileUUID string) bool
	GetMinerChunks(fileUUID string) []ChunkLocation
	Export() (string, error)
	Version() int
}
