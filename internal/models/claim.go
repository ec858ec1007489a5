package models

import "time"

// ClaimFirstAdmin is the key taken by the signup that becomes admin.
const ClaimFirstAdmin = "first_admin"

// SystemClaim records one-time bootstrap decisions; the primary key makes
// each claim winnable by a single transaction.
type SystemClaim struct {
	Key       string    `json:"key"        gorm:"type:varchar(64);primaryKey"`
	ClaimedBy string    `json:"claimed_by" gorm:"type:varchar(36);not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (SystemClaim) TableName() string { return "system_claims" }
