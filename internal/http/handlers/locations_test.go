package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vistahr/stayhub/internal/geocode"
	"github.com/vistahr/stayhub/internal/geodata"
	"github.com/vistahr/stayhub/internal/http/handlers"
)

func writeDataset(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ncr.json")

	data := `{
		"Quezon City": ["Diliman", "Cubao", "Commonwealth", "Katipunan"],
		"Makati City": ["Poblacion", "Bel-Air"],
		"Manila": ["Ermita", "Malate", "Tondo"]
	}`

	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	return path
}

func locationsRouter(t *testing.T, upstream http.HandlerFunc) (*gin.Engine, *httptest.Server) {
	t.Helper()

	dir := geodata.New(writeDataset(t), nil)

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	geocoder := geocode.NewClient(geocode.Options{
		BaseURL:   srv.URL,
		UserAgent: "stayhub-test/1.0",
		HTTPC:     srv.Client(),
		Store:     geocode.NewMemoryStore(time.Minute),
	})

	h := handlers.NewLocationsHandler(dir, geocoder)

	r := gin.New()
	r.GET("/api/locations/cities", h.Cities)
	r.GET("/api/locations/barangays", h.Barangays)
	r.GET("/api/geocode", h.Geocode)

	return r, srv
}

func okUpstream(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte(`[{"lat":"14.5995","lon":"120.9842","display_name":"Manila, Philippines"}]`))
}

func TestCities(t *testing.T) {
	r, _ := locationsRouter(t, okUpstream)

	w := doJSON(t, r, http.MethodGet, "/api/locations/cities", "")

	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}

	var resp struct {
		Cities []string `json:"cities"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := []string{"Makati City", "Manila", "Quezon City"}

	if len(resp.Cities) != len(want) {
		t.Fatalf("cities = %v, want %v", resp.Cities, want)
	}

	for i, c := range want {
		if resp.Cities[i] != c {
			t.Fatalf("cities = %v, want sorted %v", resp.Cities, want)
		}
	}
}

func TestBarangays(t *testing.T) {
	r, _ := locationsRouter(t, okUpstream)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantCity  string
		wantItems []string
		wantField string
	}{
		{
			name:      "missing_city",
			query:     "",
			wantCode:  http.StatusBadRequest,
			wantField: "city",
		},
		{
			name:      "unknown_city",
			query:     "?city=Cebu",
			wantCode:  http.StatusBadRequest,
			wantField: "city",
		},
		{
			name:      "suffixless_city_resolves",
			query:     "?city=makati",
			wantCode:  http.StatusOK,
			wantCity:  "Makati City",
			wantItems: []string{"Poblacion", "Bel-Air"},
		},
		{
			name:      "substring_filter",
			query:     "?city=Quezon%20City&q=an",
			wantCode:  http.StatusOK,
			wantCity:  "Quezon City",
			wantItems: []string{"Diliman", "Katipunan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodGet, "/api/locations/barangays"+tt.query, "")

			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}

			if tt.wantField != "" {
				var resp struct {
					Fields map[string]string `json:"fields"`
				}

				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode: %v", err)
				}

				if resp.Fields[tt.wantField] == "" {
					t.Fatalf("missing field error %q: %s", tt.wantField, w.Body.String())
				}
				return
			}

			var resp struct {
				City      string   `json:"city"`
				Barangays []string `json:"barangays"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}

			if resp.City != tt.wantCity {
				t.Errorf("city = %q, want %q", resp.City, tt.wantCity)
			}

			if len(resp.Barangays) != len(tt.wantItems) {
				t.Fatalf("barangays = %v, want %v", resp.Barangays, tt.wantItems)
			}

			for i, b := range tt.wantItems {
				if resp.Barangays[i] != b {
					t.Fatalf("barangays = %v, want %v", resp.Barangays, tt.wantItems)
				}
			}
		})
	}
}

func TestGeocodeEndpoint(t *testing.T) {
	r, _ := locationsRouter(t, okUpstream)

	// missing query is the only client error
	w := doJSON(t, r, http.MethodGet, "/api/geocode", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing q: code = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/geocode?q=Intramuros,+Manila", "")

	if w.Code != http.StatusOK {
		t.Fatalf("code = %d (%s)", w.Code, w.Body.String())
	}

	var res geocode.Result

	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if res.Hit == nil || res.Hit.Lat != 14.5995 || res.Hit.Lng != 120.9842 {
		t.Fatalf("hit = %+v", res.Hit)
	}
}

func TestGeocodeThrottledUpstreamIsStill200(t *testing.T) {
	r, _ := locationsRouter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	w := doJSON(t, r, http.MethodGet, "/api/geocode?q=Manila", "")

	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200 even when throttled", w.Code)
	}

	var res geocode.Result

	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if res.Hit != nil || !res.Throttled || res.Status != http.StatusTooManyRequests {
		t.Fatalf("result = %+v", res)
	}
}
