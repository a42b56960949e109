package dto

// CreateExportRequest queues a timetable export.
type CreateExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
	Day    string `json:"day"`
}

// ExportJobResponse describes a queued or finished export.
type ExportJobResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Format      string  `json:"format"`
	DownloadURL *string `json:"download_url,omitempty"`
	Error       *string `json:"error,omitempty"`
}
