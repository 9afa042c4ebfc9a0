package domain

import dErrors "safereturn/pkg/domain-errors"

// City is the closed set of cities a case or job listing can be tagged with.
type City string

const (
	CityRiyadh City = "riyadh"
	CityJeddah City = "jeddah"
	CityMecca  City = "mecca"
	CityMedina City = "medina"
	CityDammam City = "dammam"
	CityKhobar City = "khobar"
	CityTaif   City = "taif"
	CityTabuk  City = "tabuk"
	CityOther  City = "other"
)

var validCities = map[City]bool{
	CityRiyadh: true,
	CityJeddah: true,
	CityMecca:  true,
	CityMedina: true,
	CityDammam: true,
	CityKhobar: true,
	CityTaif:   true,
	CityTabuk:  true,
	CityOther:  true,
}

// ParseCity constructs a City from external input. The empty string maps to
// CityRiyadh, matching the intake form default.
func ParseCity(s string) (City, error) {
	if s == "" {
		return CityRiyadh, nil
	}
	c := City(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid city")
	}
	return c, nil
}

func (c City) IsValid() bool {
	return validCities[c]
}

func (c City) String() string {
	return string(c)
}
