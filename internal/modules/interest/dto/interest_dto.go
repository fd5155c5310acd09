package dto

type InterestRequest struct {
	Category    string   `json:"category" binding:"required"`
	Keywords    []string `json:"keywords" binding:"omitempty,max=10,dive,max=50"`
	RadiusMiles *int     `json:"radius_miles" binding:"omitempty,min=1,max=50"`
}

type ReplaceInterestsRequest struct {
	Interests []InterestRequest `json:"interests" binding:"max=20,dive"`
}
