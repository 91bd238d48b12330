package document

import (
	"errors"
	"time"
)

const (
	StatusUploaded    = "uploaded"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
	StatusArchived    = "archived"
)

const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

var ErrNotFound = errors.New("document not found")

// Document is metadata only. Actual file storage is out of scope, the
// storage path is recorded as an opaque reference.
type Document struct {
	ID           string    `json:"documentId"`
	EmployeeID   *string   `json:"employeeId,omitempty"`
	UploadedBy   *string   `json:"uploadedBy,omitempty"`
	Title        string    `json:"title"`
	FileName     string    `json:"fileName"`
	FileType     *string   `json:"fileType,omitempty"`
	FileSize     *int64    `json:"fileSize,omitempty"`
	DocumentType *string   `json:"documentType,omitempty"`
	Status       string    `json:"status"`
	Visibility   string    `json:"visibility"`
	StoragePath  *string   `json:"storagePath,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateDocumentRequest struct {
	EmployeeID   *string `json:"employeeId" binding:"omitempty,uuid"`
	Title        string  `json:"title" binding:"required,min=1,max=255"`
	FileName     string  `json:"fileName" binding:"required,max=255"`
	FileType     *string `json:"fileType" binding:"omitempty,max=50"`
	FileSize     *int64  `json:"fileSize" binding:"omitempty,min=0"`
	DocumentType *string `json:"documentType" binding:"omitempty,max=100"`
	Visibility   string  `json:"visibility" binding:"omitempty,oneof=private public"`
}

type UpdateDocumentRequest struct {
	Title        *string `json:"title" binding:"omitempty,min=1,max=255"`
	DocumentType *string `json:"documentType" binding:"omitempty,max=100"`
	Status       *string `json:"status" binding:"omitempty,oneof=uploaded under_review approved rejected archived"`
	Visibility   *string `json:"visibility" binding:"omitempty,oneof=private public"`
}

type ListDocumentsFilter struct {
	EmployeeID   *string
	DocumentType *string
	Status       *string
	Limit        int
	Offset       int
}
