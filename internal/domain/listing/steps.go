package listing

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// FieldErrors maps a payload field to its violation message. Validation
// reports every violated field at once, not just the first.
type FieldErrors map[string]string

// CityDirectory is the slice of the reference dataset step 3 needs.
type CityDirectory interface {
	Canonical(city string) (string, bool)
	HasBarangay(city, barangay string) bool
}

var zipRe = regexp.MustCompile(`^[0-9]{4}$`)

const (
	provinceMetroManila = "Metro Manila"
	defaultCountry      = "Philippines"
)

// The wizard frontend has sent both camelCase and snake_case keys over
// time, so the create/step-2 payloads accept either spelling.

type Step1Request struct {
	PlaceType      *string `json:"placeType"`
	PlaceTypeSnake *string `json:"place_type"`
}

func (r Step1Request) Validate() (*string, FieldErrors) {
	raw := r.PlaceType

	if raw == nil {
		raw = r.PlaceTypeSnake
	}

	if raw == nil {
		return nil, nil
	}

	trimmed := strings.TrimSpace(*raw)

	if trimmed == "" {
		return nil, FieldErrors{"placeType": "Must be a non-empty string."}
	}

	return &trimmed, nil
}

type Step2Request struct {
	SpaceType      string `json:"spaceType"`
	SpaceTypeSnake string `json:"space_type"`
}

func (r Step2Request) Validate() (string, FieldErrors) {
	raw := r.SpaceType

	if raw == "" {
		raw = r.SpaceTypeSnake
	}

	trimmed := strings.TrimSpace(raw)

	if trimmed == "" {
		return "", FieldErrors{"spaceType": "Must be a non-empty string."}
	}

	return trimmed, nil
}

type Step3Request struct {
	Street   string `json:"street"`
	Barangay string `json:"barangay"`
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

// Validate cross-checks the city and barangay against the reference
// dataset and normalizes the stored location (province is always
// "Metro Manila", zip the bare 4 digits).
func (r Step3Request) Validate(dir CityDirectory) (Location, FieldErrors) {
	errs := FieldErrors{}

	street := strings.TrimSpace(r.Street)
	city := strings.TrimSpace(r.City)
	barangay := strings.TrimSpace(r.Barangay)
	zip := strings.TrimSpace(r.Zip)
	country := strings.TrimSpace(r.Country)

	if street == "" {
		errs["street"] = "Street is required."
	}

	if city == "" {
		errs["city"] = "City is required."
	}

	if !zipRe.MatchString(zip) {
		errs["zip"] = "ZIP must be exactly 4 digits."
	}

	canonical := ""

	if city != "" {
		c, ok := dir.Canonical(city)

		if !ok {
			errs["city"] = fmt.Sprintf("Unknown city '%s'", city)
		} else {
			canonical = c
		}
	}

	if barangay != "" && canonical != "" && !dir.HasBarangay(canonical, barangay) {
		errs["barangay"] = fmt.Sprintf("Barangay '%s' does not belong to %s.", barangay, canonical)
	}

	if len(errs) > 0 {
		return Location{}, errs
	}

	if country == "" {
		country = defaultCountry
	}

	return Location{
		Street:   street,
		Barangay: barangay,
		City:     canonical,
		Province: provinceMetroManila,
		Zip:      zip,
		Country:  country,
	}, nil
}

type Step4Request struct {
	Capacity *CapacityPayload `json:"capacity"`
}

// CapacityPayload tolerates guests arriving as a number or a numeric
// string, which is what the wizard has historically sent.
type CapacityPayload struct {
	Guests    json.Number `json:"guests"`
	Bedrooms  *int        `json:"bedrooms"`
	Beds      *int        `json:"beds"`
	Bathrooms *int        `json:"bathrooms"`
}

func (r Step4Request) Validate() (Capacity, FieldErrors) {
	if r.Capacity == nil {
		return Capacity{}, FieldErrors{"capacity": "Must be an object."}
	}

	guests64, err := r.Capacity.Guests.Int64()

	if err != nil || guests64 < 1 {
		return Capacity{}, FieldErrors{"capacity.guests": "Must be at least 1."}
	}

	return Capacity{
		Guests:    int(guests64),
		Bedrooms:  r.Capacity.Bedrooms,
		Beds:      r.Capacity.Beds,
		Bathrooms: r.Capacity.Bathrooms,
	}, nil
}

type Step5Request struct {
	Amenities *AmenitiesPayload `json:"amenities"`
}

type AmenitiesPayload struct {
	Appliances []string `json:"appliances"`
	Activities []string `json:"activities"`
	Safety     []string `json:"safety"`
}

func (r Step5Request) Validate() (Amenities, FieldErrors) {
	if r.Amenities == nil {
		return Amenities{}, FieldErrors{"amenities": "Must be an object."}
	}

	out := Amenities{
		Appliances: orEmpty(r.Amenities.Appliances),
		Activities: orEmpty(r.Amenities.Activities),
		Safety:     orEmpty(r.Amenities.Safety),
	}

	total := len(out.Appliances) + len(out.Activities) + len(out.Safety)

	if total < 1 {
		return Amenities{}, FieldErrors{"amenities": "Select at least 1 amenity."}
	}

	return out, nil
}

type Step6Request struct {
	Highlights []string `json:"highlights"`
}

func (r Step6Request) Validate() ([]string, FieldErrors) {
	if r.Highlights == nil {
		return nil, FieldErrors{"highlights": "Must be an array."}
	}

	if len(r.Highlights) < 1 {
		return nil, FieldErrors{"highlights": "Select at least 1 highlight."}
	}

	if len(r.Highlights) > 5 {
		return nil, FieldErrors{"highlights": "Max is 5."}
	}

	return r.Highlights, nil
}

type Step7Request struct {
	Photos []string `json:"photos"`
}

func (r Step7Request) Validate() ([]string, FieldErrors) {
	if r.Photos == nil {
		return nil, FieldErrors{"photos": "Must be an array."}
	}

	if len(r.Photos) < 5 {
		return nil, FieldErrors{"photos": "Minimum 5 photos required."}
	}

	return r.Photos, nil
}

type Step8Request struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r Step8Request) Validate() (title, description string, errs FieldErrors) {
	errs = FieldErrors{}

	title = strings.TrimSpace(r.Title)
	description = strings.TrimSpace(r.Description)

	if len(title) < 3 {
		errs["title"] = "Title must be at least 3 characters."
	}

	if len(description) < 10 {
		errs["description"] = "Description must be at least 10 characters."
	}

	if len(errs) > 0 {
		return "", "", errs
	}

	return title, description, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
