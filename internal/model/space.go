package model

import "time"

// Space is a venue's physical display location.
type Space struct {
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	SavedArea      *SavedArea `json:"saved_area,omitempty"`
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	ReferenceImage string     `json:"reference_image,omitempty"`
}

// SavedArea is a previously saved placement rectangle in percentages.
// It is plain data; the placement package validates it on entry.
type SavedArea struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Exhibition is the hand-off record created when an operator picks a candidate.
type Exhibition struct {
	RequestedAt time.Time `json:"requested_at"`
	RequestID   string    `json:"request_id"`
	CandidateID string    `json:"candidate_id"`
	SpaceID     string    `json:"space_id"`
}
