package domain

// LocationData is a captured or synthesized location. District/Subdivision
// carry whatever was selected at capture time.
type LocationData struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address"`
	District    string  `json:"district,omitempty"`
	Subdivision string  `json:"subdivision,omitempty"`
}
