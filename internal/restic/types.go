package restic

// JSON shapes of restic's --json output. Only the fields the orchestrator
// consumes are mapped; restic may add more at any time.

type (
	// BackupSummary is the message_type=summary line restic prints at the end
	// of a successful backup.
	BackupSummary struct {
		MessageType   string  `json:"message_type"`
		FilesNew      uint64  `json:"files_new"`
		FilesChanged  uint64  `json:"files_changed"`
		DataAdded     uint64  `json:"data_added"`
		TotalBytes    uint64  `json:"total_bytes_processed"`
		TotalFiles    uint64  `json:"total_files_processed"`
		TotalDuration float64 `json:"total_duration"`
		SnapshotID    string  `json:"snapshot_id"`
	}

	// BackupStatus is the periodic message_type=status progress line.
	BackupStatus struct {
		MessageType  string   `json:"message_type"`
		PercentDone  float64  `json:"percent_done"`
		TotalFiles   uint64   `json:"total_files"`
		FilesDone    uint64   `json:"files_done"`
		TotalBytes   uint64   `json:"total_bytes"`
		BytesDone    uint64   `json:"bytes_done"`
		ErrorCount   int      `json:"error_count"`
		CurrentFiles []string `json:"current_files"`
	}

	Snapshot struct {
		ID       string   `json:"id"`
		ShortID  string   `json:"short_id"`
		Time     string   `json:"time"`
		Hostname string   `json:"hostname"`
		Paths    []string `json:"paths"`
		Tags     []string `json:"tags"`
	}
)
