package dto

// ReportFile is a rendered document ready to stream.
type ReportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
