package business

type UpdateDTO struct {
	Name        *string `json:"name"`
	Cuisine     *string `json:"cuisine"`
	Description *string `json:"description"`
	Timezone    *string `json:"timezone"`
}
