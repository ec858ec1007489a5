package models

// MediaFileModel records an object uploaded to the media bucket. Rows are
// hard-deleted together with their object.
type MediaFileModel struct {
	Base
	FilePath     string `json:"file_path"     gorm:"type:varchar(512);uniqueIndex;not null"`
	BusinessID   string `json:"business_id"   gorm:"type:varchar(36);index;not null"`
	UploadedBy   string `json:"uploaded_by"   gorm:"type:varchar(36)"`
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"  gorm:"type:varchar(64);not null"`
	SizeBytes    int64  `json:"size_bytes"`
}

func (MediaFileModel) TableName() string { return "media_files" }
