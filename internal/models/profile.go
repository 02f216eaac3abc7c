// internal/models/profile.go
package models

import "strings"

// FarmerProfile is the caller-supplied description of one farmer. It is read
// only for the duration of a recommendation request.
type FarmerProfile struct {
	Income          Quantity  `json:"income"`
	LandSize        Quantity  `json:"land_size"`
	FarmerType      string    `json:"farmer_type"`
	CropType        string    `json:"crop_type"`
	State           string    `json:"state"`
	District        string    `json:"district"`
	Season          string    `json:"season"`
	SoilType        string    `json:"soil_type"`
	WaterSources    StringSet `json:"water_sources"`
	RainfallRegion  string    `json:"rainfall_region"`
	TemperatureZone string    `json:"temperature_zone"`
	PastSubsidies   StringSet `json:"past_subsidies"`
}

// RequiredProfileFields lists the fields a profile must carry, in the order
// they are reported.
var RequiredProfileFields = []string{"income", "farmer_type", "land_size", "crop_type", "state"}

// MissingFields returns the required fields that are absent, blank or zero.
func (p FarmerProfile) MissingFields() []string {
	var missing []string
	for _, field := range RequiredProfileFields {
		var empty bool
		switch field {
		case "income":
			empty = p.Income.IsEmpty()
		case "farmer_type":
			empty = strings.TrimSpace(p.FarmerType) == ""
		case "land_size":
			empty = p.LandSize.IsEmpty()
		case "crop_type":
			empty = strings.TrimSpace(p.CropType) == ""
		case "state":
			empty = strings.TrimSpace(p.State) == ""
		}
		if empty {
			missing = append(missing, field)
		}
	}
	return missing
}
