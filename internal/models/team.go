package models

// Team represents a team entity.
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
