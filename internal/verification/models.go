package verification

import (
	"time"

	id "trueconnect/pkg/domain"

	"trueconnect/internal/verification/status"
)

// Request is one verification attempt. Created at submission, mutated exactly
// once by an administrator, never deleted. Email and display name are
// denormalized snapshots taken at submission time.
type Request struct {
	ID     id.RequestID
	UserID id.UserID

	UserEmail string
	UserName  string

	DocumentURL string
	FileName    string

	Status       status.RequestStatus
	AdminComment string

	SubmittedAt time.Time
	ProcessedAt *time.Time
}

// View is the wire representation of a request.
type View struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	UserEmail    string     `json:"user_email"`
	UserName     string     `json:"user_name"`
	DocumentURL  string     `json:"id_image_url"`
	FileName     string     `json:"file_name"`
	Status       string     `json:"status"`
	AdminComment string     `json:"admin_comment,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// ToView converts a request to its wire representation.
func (r *Request) ToView() View {
	return View{
		ID:           r.ID.String(),
		UserID:       r.UserID.String(),
		UserEmail:    r.UserEmail,
		UserName:     r.UserName,
		DocumentURL:  r.DocumentURL,
		FileName:     r.FileName,
		Status:       string(r.Status),
		AdminComment: r.AdminComment,
		SubmittedAt:  r.SubmittedAt,
		ProcessedAt:  r.ProcessedAt,
	}
}

// Document is an uploaded file after multipart decoding.
type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}
