package fsm

// TransferRequest is the FSM input
type TransferRequest struct {
	// Dir is the local export folder.
	Dir string
	// Prefix is the bucket prefix mirroring Dir.
	Prefix string
	Bucket string
}

// TransferResponse is the FSM output (accumulated across transitions)
type TransferResponse struct {
	RunID string

	// From Export / Import
	Structures int
	Properties int
	Components int
	Images     int
	ImageBytes int64

	// From Upload / Download
	Objects     int
	ObjectBytes int64

	// From Complete
	Status string
}

// Machine names
const (
	ExportMachine = "export-upload"
	ImportMachine = "download-import"
)

// State names
const (
	StateExport   = "export"
	StateUpload   = "upload"
	StateDownload = "download"
	StateImport   = "import"
	StateComplete = "complete"
	StateFailed   = "failed"
)

// StatusComplete is the final status of a successful run.
const StatusComplete = "complete"
