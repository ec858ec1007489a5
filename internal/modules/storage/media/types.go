package media

import "time"

// UploadRequest is the JSON body of POST /media/upload. File is base64; a
// data URL prefix is accepted and its media type fills ContentType when empty.
type UploadRequest struct {
	File        string `json:"file"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	BusinessID  string `json:"businessId"`
	UploaderID  string `json:"-"`
}

// Blob is an already-decoded upload, used by server-side producers such as
// rendered fact cards.
type Blob struct {
	Body        []byte
	FileName    string
	ContentType string
	BusinessID  string
	UploaderID  string
}

type UploadResult struct {
	ID          string `json:"id"`
	FilePath    string `json:"filePath"`
	PublicURL   string `json:"publicUrl"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type signedURLResponse struct {
	URL       string    `json:"url"`
	FilePath  string    `json:"filePath"`
	ExpiresAt time.Time `json:"expiresAt"`
}
