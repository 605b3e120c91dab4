package geodata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeDataset(t *testing.T, data map[string][]string) string {
	t.Helper()

	raw, err := json.Marshal(data)

	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	path := filepath.Join(t.TempDir(), "ncr.json")

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	return path
}

func testData() map[string][]string {
	return map[string][]string{
		"Quezon City": {"Diliman", "Cubao", "Commonwealth"},
		"Makati City": {"Poblacion", "Bel-Air"},
		"Manila":      {"Ermita", "Malate"},
		"Pateros":     {"Aguho", "San Pedro"},
	}
}

func TestCitiesAreSorted(t *testing.T) {
	d := New(writeDataset(t, testData()), nil)

	got := d.Cities()
	want := []string{"Makati City", "Manila", "Pateros", "Quezon City"}

	if len(got) != len(want) {
		t.Fatalf("cities = %v", got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cities = %v, want %v", got, want)
		}
	}
}

func TestCanonical(t *testing.T) {
	d := New(writeDataset(t, testData()), nil)

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "Quezon City", want: "Quezon City", ok: true},
		{in: "quezon city", want: "Quezon City", ok: true},
		// missing " City" suffix is tolerated
		{in: "Makati", want: "Makati City", ok: true},
		{in: "MAKATI", want: "Makati City", ok: true},
		// names without the suffix resolve as-is
		{in: "manila", want: "Manila", ok: true},
		{in: "Pateros", want: "Pateros", ok: true},
		{in: "  Quezon City  ", want: "Quezon City", ok: true},
		{in: "Cebu", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := d.Canonical(tt.in)

		if ok != tt.ok || got != tt.want {
			t.Errorf("Canonical(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMissingDatasetFailsClosed(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "does-not-exist.json"), nil)

	if len(d.Cities()) != 0 {
		t.Fatalf("cities = %v, want empty", d.Cities())
	}

	if _, ok := d.Canonical("Quezon City"); ok {
		t.Fatal("empty directory resolved a city")
	}
}

func TestUnreadableDatasetFailsClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d := New(path, nil)

	if len(d.Cities()) != 0 {
		t.Fatalf("cities = %v, want empty", d.Cities())
	}
}

func TestBarangays(t *testing.T) {
	d := New(writeDataset(t, testData()), nil)

	tests := []struct {
		name string
		city string
		q    string
		want []string
	}{
		{name: "all", city: "Quezon City", q: "", want: []string{"Diliman", "Cubao", "Commonwealth"}},
		{name: "substring", city: "Quezon City", q: "co", want: []string{"Commonwealth"}},
		{name: "case_insensitive", city: "Quezon City", q: "CUBAO", want: []string{"Cubao"}},
		{name: "no_match", city: "Quezon City", q: "zzz", want: []string{}},
		{name: "unknown_city", city: "Cebu", q: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Barangays(tt.city, tt.q)

			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}

			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestBarangaysAreCapped(t *testing.T) {
	many := make([]string, 0, MaxBarangayResults+10)

	for i := 0; i < MaxBarangayResults+10; i++ {
		many = append(many, fmt.Sprintf("Barangay %03d", i))
	}

	d := New(writeDataset(t, map[string][]string{"Big City": many}), nil)

	if got := len(d.Barangays("Big City", "")); got != MaxBarangayResults {
		t.Fatalf("len = %d, want %d", got, MaxBarangayResults)
	}
}

func TestHasBarangay(t *testing.T) {
	d := New(writeDataset(t, testData()), nil)

	if !d.HasBarangay("Makati City", "bel-air") {
		t.Error("case-insensitive match failed")
	}

	if d.HasBarangay("Makati City", "Diliman") {
		t.Error("barangay from another city matched")
	}

	if d.HasBarangay("Cebu", "Diliman") {
		t.Error("unknown city matched")
	}
}
