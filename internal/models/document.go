package models

import "time"

// Status values shared by the records below.
const (
	StatusValidating = "VALIDATING"
	StatusGenerating = "GENERATING"
	StatusReady      = "READY"
	StatusFailed     = "FAILED"
)

// Section is the Firestore record of one generated section PDF.
type Section struct {
	Email         string    `firestore:"email,omitempty"`
	Headtitle     string    `firestore:"headtitle,omitempty"`
	Position      int       `firestore:"position"`
	ObjectName    string    `firestore:"objectName,omitempty"`
	URI           string    `firestore:"uri,omitempty"`
	PreviewURI    string    `firestore:"previewUri,omitempty"`
	FileHash      string    `firestore:"fileHash,omitempty"`
	PageCount     int       `firestore:"pageCount,omitempty"`
	OverflowCount int       `firestore:"overflowCount"`
	Status        string    `firestore:"status,omitempty"`
	ErrorDetails  string    `firestore:"errorDetails,omitempty"`
	CreatedAt     time.Time `firestore:"createdAt,omitempty"`
}

// Template is the record of an uploaded section background PDF.
type Template struct {
	FileHash         string    `firestore:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	URI              string    `firestore:"uri,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	PageCount        int       `firestore:"pageCount,omitempty"`
	PageWidth        float64   `firestore:"pageWidth,omitempty"`
	PageHeight       float64   `firestore:"pageHeight,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}

// Yearbook is the record of a user's assembled yearbook.
type Yearbook struct {
	Email               string    `firestore:"email,omitempty"`
	URI                 string    `firestore:"uri,omitempty"`
	SectionCount        int       `firestore:"sectionCount"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty"` // For traceability
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
}
