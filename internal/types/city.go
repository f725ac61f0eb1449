package types

// City is a location record as stored. Names holds per-language
// translations keyed by Language.NameKey; a record is not guaranteed to
// carry every key.
type City struct {
	ID         int64             `json:"id"`
	IsFeatured bool              `json:"isFeatured"`
	CountryISO string            `json:"countryIso"`
	RegionID   int64             `json:"regionId"`
	Names      map[string]string `json:"names"`
	Centroid   Coordinates       `json:"centroid"`
}

// Region is the administrative area a city belongs to. Referenced by ID
// from City; never embedded.
type Region struct {
	ID    int64             `json:"id"`
	Names map[string]string `json:"names"`
}

// CityResponse is the client-facing shape: one city joined with its region,
// localized to the requested language. All fields are always populated; a
// record missing the requested translation is rejected upstream instead of
// serialized with blanks.
type CityResponse struct {
	ID         int64  `json:"id" example:"101748113"`
	IsFeatured bool   `json:"isFeatured" example:"true"`
	CountryISO string `json:"countryIso" example:"CZ"`
	Name       string `json:"name" example:"Praha"`
	RegionName string `json:"regionName" example:"Praha"`
}

// MultiCityResponse wraps list results.
type MultiCityResponse struct {
	Cities []CityResponse `json:"cities"`
}
