package model

// ProcessingGuarantee controls whether a job takes periodic snapshots
// and whether a graceful termination can carry a terminal one.
type ProcessingGuarantee int32

const (
	// GuaranteeNone disables snapshotting entirely; any requested
	// terminal snapshot is downgraded to forceful, except graceful
	// cancellation which is always honoured.
	GuaranteeNone ProcessingGuarantee = iota
	GuaranteeAtLeastOnce
	GuaranteeExactlyOnce
)

// JobConfig is the parsed configuration the controller needs. The CLI
// layer is responsible for loading it (see cmd/jetcoordd) from TOML;
// the controller never touches a file directly.
type JobConfig struct {
	ProcessingGuarantee ProcessingGuarantee `toml:"processing_guarantee"`
	AutoScaling         bool                `toml:"auto_scaling"`
	InitialSnapshotName string              `toml:"initial_snapshot_name"`
}
