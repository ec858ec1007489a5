package models

// BusinessModel is a tenant restaurant. Media paths and slides are scoped to it.
type BusinessModel struct {
	Base
	OwnerID     string `json:"owner_id"    gorm:"type:varchar(36);index;not null"`
	Name        string `json:"name"        gorm:"not null"`
	Slug        string `json:"slug"        gorm:"type:varchar(191);uniqueIndex;not null"`
	Cuisine     string `json:"cuisine"`
	Description string `json:"description" gorm:"type:text"`
	Timezone    string `json:"timezone"`
}

func (BusinessModel) TableName() string { return "businesses" }
