package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vistahr/stayhub/internal/domain/listing"
	"github.com/vistahr/stayhub/internal/geocode"
	"github.com/vistahr/stayhub/internal/geodata"
)

type LocationsHandler struct {
	dir      *geodata.Directory
	geocoder *geocode.Client
}

func NewLocationsHandler(dir *geodata.Directory, geocoder *geocode.Client) *LocationsHandler {
	return &LocationsHandler{dir: dir, geocoder: geocoder}
}

func (h *LocationsHandler) Cities(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"cities": h.dir.Cities()})
}

func (h *LocationsHandler) Barangays(ctx *gin.Context) {
	city := strings.TrimSpace(ctx.Query("city"))
	q := strings.TrimSpace(ctx.Query("q"))

	if city == "" {
		RespondValidation(ctx, listing.FieldErrors{"city": "city is required"})
		return
	}

	canonical, ok := h.dir.Canonical(city)

	if !ok {
		RespondValidation(ctx, listing.FieldErrors{"city": fmt.Sprintf("Unknown city '%s'", city)})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"city":      canonical,
		"barangays": h.dir.Barangays(canonical, q),
	})
}

// Geocode proxies the upstream geocoder. Upstream throttling or outages
// come back as a 200 with a null hit; only a missing query is an error.
func (h *LocationsHandler) Geocode(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))

	if q == "" {
		RespondValidation(ctx, listing.FieldErrors{"q": "q is required"})
		return
	}

	res := h.geocoder.Lookup(ctx.Request.Context(), q)

	ctx.JSON(http.StatusOK, res)
}
