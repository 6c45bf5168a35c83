package domain

// RoofType is a selectable roof surface category for existing homes.
type RoofType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoofTypes is the fixed catalogue offered by the intake form.
var RoofTypes = []RoofType{
	{ID: "rcc", Name: "RCC"},
	{ID: "tile", Name: "Tile"},
	{ID: "metal", Name: "Metal Sheet"},
	{ID: "other", Name: "Other"},
}
