package geodata

import (
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// MaxBarangayResults caps barangay lookups per city.
const MaxBarangayResults = 30

// Directory holds the static NCR city -> barangay reference mapping.
// It is loaded once at construction and read-only afterwards; handlers
// receive it by reference instead of reaching for package globals.
type Directory struct {
	cities   []string
	byCity   map[string][]string
	keyIndex map[string]string // lowercased name -> canonical key
}

// New reads the mapping from path. A missing file is not an error: the
// directory comes up empty and every city validation fails closed.
func New(path string, log *slog.Logger) *Directory {
	d := &Directory{
		byCity:   map[string][]string{},
		keyIndex: map[string]string{},
	}

	raw, err := os.ReadFile(path)

	if err != nil {
		if log != nil {
			log.Warn("barangay dataset not found, city validation will reject everything", "path", path)
		}
		return d
	}

	var data map[string][]string

	err = json.Unmarshal(raw, &data)

	if err != nil {
		if log != nil {
			log.Warn("barangay dataset unreadable", "path", path, "err", err)
		}
		return d
	}

	for city, barangays := range data {
		d.byCity[city] = barangays
		d.keyIndex[strings.ToLower(city)] = city
		d.cities = append(d.cities, city)
	}

	sort.Strings(d.cities)

	return d
}

// Cities returns the known city names in sorted order.
func (d *Directory) Cities() []string {
	out := make([]string, len(d.cities))
	copy(out, d.cities)
	return out
}

// Canonical resolves a user-supplied city name case-insensitively,
// tolerating a missing " City" suffix ("Makati" -> "Makati City").
func (d *Directory) Canonical(city string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(city))

	if key == "" {
		return "", false
	}

	if canonical, ok := d.keyIndex[key]; ok {
		return canonical, true
	}

	if !strings.HasSuffix(key, " city") {
		if canonical, ok := d.keyIndex[key+" city"]; ok {
			return canonical, true
		}
	}

	return "", false
}

// Barangays lists barangays of a canonical city, optionally filtered by a
// case-insensitive substring, capped at MaxBarangayResults.
func (d *Directory) Barangays(city, q string) []string {
	items := d.byCity[city]

	q = strings.ToLower(strings.TrimSpace(q))

	out := make([]string, 0, MaxBarangayResults)

	for _, b := range items {
		if q != "" && !strings.Contains(strings.ToLower(b), q) {
			continue
		}

		out = append(out, b)

		if len(out) == MaxBarangayResults {
			break
		}
	}

	return out
}

// HasBarangay reports whether the named barangay belongs to the canonical
// city, case-insensitively.
func (d *Directory) HasBarangay(city, barangay string) bool {
	want := strings.ToLower(strings.TrimSpace(barangay))

	for _, b := range d.byCity[city] {
		if strings.ToLower(b) == want {
			return true
		}
	}

	return false
}
