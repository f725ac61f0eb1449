package types

import "fmt"

// Coordinates is a WGS84 point in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the pair lies on the globe. (0, 0) is a legitimate
// point here; callers treating it as an absence sentinel must decide that
// before validating.
func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrBadRequest, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrBadRequest, c.Lon)
	}
	return nil
}

// IsZero reports whether the pair is exactly (0, 0), the value inferred
// geolocation headers carry when the edge could not place the client.
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lon == 0
}
