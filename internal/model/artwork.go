package model

// Artwork is a catalog record for a listed work.
type Artwork struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Artist      string   `yaml:"artist" json:"artist"`
	Image       string   `yaml:"image" json:"image"`
	MatchReason string   `yaml:"match_reason" json:"match_reason"`
	Tags        []string `yaml:"tags" json:"tags"`
	Price       int      `yaml:"price" json:"price"`
	WidthCm     float64  `yaml:"width_cm" json:"width_cm"`
	HeightCm    float64  `yaml:"height_cm" json:"height_cm"`
}

// Overlay is the size of a candidate preview inside a placement area,
// expressed as percentages of the area.
type Overlay struct {
	WidthPercent  float64 `json:"width_percent"`
	HeightPercent float64 `json:"height_percent"`
}

// Candidate is an artwork proposed for a placement area.
type Candidate struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Image       string   `json:"image"`
	MatchReason string   `json:"match_reason"`
	Tags        []string `json:"tags"`
	Overlay     Overlay  `json:"overlay"`
	Price       int      `json:"price"`
}

// NewCandidate builds a candidate from a catalog record.
func NewCandidate(a Artwork) Candidate {
	tags := make([]string, len(a.Tags))
	copy(tags, a.Tags)
	return Candidate{
		ID:          a.ID,
		Title:       a.Title,
		Artist:      a.Artist,
		Image:       a.Image,
		Price:       a.Price,
		MatchReason: a.MatchReason,
		Tags:        tags,
	}
}
