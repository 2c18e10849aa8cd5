package enums

import "fmt"

// City is one of the store cities sales are attributed to. City and State
// are drawn independently, so a City does not imply a State.
type City string

const (
	CityNewYork      City = "New York"
	CityLosAngeles   City = "Los Angeles"
	CityChicago      City = "Chicago"
	CityHouston      City = "Houston"
	CityPhoenix      City = "Phoenix"
	CityPhiladelphia City = "Philadelphia"
	CitySanAntonio   City = "San Antonio"
	CitySanDiego     City = "San Diego"
	CityDallas       City = "Dallas"
	CitySanJose      City = "San Jose"
)

var validCities = []City{
	CityNewYork,
	CityLosAngeles,
	CityChicago,
	CityHouston,
	CityPhoenix,
	CityPhiladelphia,
	CitySanAntonio,
	CitySanDiego,
	CityDallas,
	CitySanJose,
}

// Cities returns the cities in catalog order.
func Cities() []City {
	out := make([]City, len(validCities))
	copy(out, validCities)
	return out
}

// String implements fmt.Stringer.
func (c City) String() string {
	return string(c)
}

// IsValid reports whether the value is a known City.
func (c City) IsValid() bool {
	for _, candidate := range validCities {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCity converts raw input into a City.
func ParseCity(value string) (City, error) {
	for _, candidate := range validCities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid city %q", value)
}
