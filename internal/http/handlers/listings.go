package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vistahr/stayhub/internal/config"
	"github.com/vistahr/stayhub/internal/domain/listing"
	"github.com/vistahr/stayhub/internal/domain/user"
	"github.com/vistahr/stayhub/internal/http/middlewares"
)

type ListingStore interface {
	Create(ctx context.Context, ownerID int64, placeType *string) (listing.Listing, error)
	GetForOwner(ctx context.Context, id, ownerID int64) (listing.Listing, error)
	GetByID(ctx context.Context, id int64) (listing.Listing, error)
	LatestDraft(ctx context.Context, ownerID int64) (*listing.Listing, error)
	SaveSpaceType(ctx context.Context, id, ownerID int64, spaceType string) (listing.Listing, error)
	SaveLocation(ctx context.Context, id, ownerID int64, loc listing.Location) (listing.Listing, error)
	SaveCapacity(ctx context.Context, id, ownerID int64, capacity listing.Capacity) (listing.Listing, error)
	SaveAmenities(ctx context.Context, id, ownerID int64, am listing.Amenities) (listing.Listing, error)
	SaveHighlights(ctx context.Context, id, ownerID int64, highlights []string) (listing.Listing, error)
	SavePhotos(ctx context.Context, id, ownerID int64, photos []string) (listing.Listing, error)
	SaveDetails(ctx context.Context, id, ownerID int64, title, description string) (listing.Listing, error)
	SetStatus(ctx context.Context, id int64, status string) (listing.Listing, error)
	Feed(ctx context.Context, filter listing.FeedFilter) ([]listing.Listing, error)
}

type ListingsHandler struct {
	store ListingStore
	dir   listing.CityDirectory
}

func NewListingsHandler(store ListingStore, dir listing.CityDirectory) *ListingsHandler {
	return &ListingsHandler{store: store, dir: dir}
}

const dbTimeout = 3 * time.Second

// listingID parses the path id. A non-numeric id is a NotFound, the same
// as a numeric id that matches nothing.
func listingID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id < 1 {
		RespondNotFound(ctx, "Listing not found")
		return 0, false
	}

	return id, true
}

func currentOwner(ctx *gin.Context) (user.User, bool) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return user.User{}, false
	}

	return u, ok
}

// resolveOwned loads the draft or collapses "absent" and "not yours" into
// one NotFound, so existence is never disclosed to non-owners.
func (h *ListingsHandler) resolveOwned(ctx *gin.Context, cctx context.Context, id, ownerID int64) bool {
	_, err := h.store.GetForOwner(cctx, id, ownerID)

	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			RespondNotFound(ctx, "Listing not found")
		} else {
			RespondStorageError(ctx)
		}
		return false
	}

	return true
}

func (h *ListingsHandler) respondSaved(ctx *gin.Context, l listing.Listing, err error, message string) {
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			RespondNotFound(ctx, "Listing not found")
		} else {
			RespondStorageError(ctx)
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": message, "listing": l})
}

// Step 1: create the draft.
func (h *ListingsHandler) CreateDraft(ctx *gin.Context) {
	owner, ok := currentOwner(ctx)

	if !ok {
		return
	}

	var req listing.Step1Request

	if !BindJSON(ctx, &req) {
		return
	}

	placeType, fieldErrs := req.Validate()

	if fieldErrs != nil {
		RespondValidation(ctx, fieldErrs)
		return
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	l, err := h.store.Create(cctx, owner.ID, placeType)

	if err != nil {
		RespondStorageError(ctx)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Draft listing created", "listing": l})
}

func (h *ListingsHandler) Step2(ctx *gin.Context) {
	owner, ok := currentOwner(ctx)

	if !ok {
		return
	}

	id, ok := listingID(ctx)

	if !ok {
		return
	}

	var req listing.Step2Request

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	if !h.resolveOwned(ctx, cctx, id, owner.ID) {
		return
	}

	spaceType, fieldErrs := req.Validate()

	if fieldErrs != nil {
		RespondValidation(ctx, fieldErrs)
		return
	}

	l, err := h.store.SaveSpaceType(cctx, id, owner.ID, spaceType)

	h.respondSaved(ctx, l, err, "Step 2 saved")
}

func (h *ListingsHandler) Step3(ctx *gin.Context) {
	owner, ok := currentOwner(ctx)

	if !ok {
		return
	}

	id, ok := listingID(ctx)

	if !ok {
		return
	}

	var req listing.Step3Request

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	if !h.resolveOwned(ctx, cctx, id, owner.ID) {
		return
	}

	loc, fieldErrs := req.Validate(h.dir)

	if fieldErrs != nil {
		RespondValidation(ctx, fieldErrs)
		return
	}

	l, err := h.store.SaveLocation(cctx, id, owner.ID, loc)

	h.respondSaved(ctx, l, err, "Step 3 saved")
}

func (h *ListingsHandler) Step4(ctx *gin.Context) {
	owner, ok := currentOwner(ctx)

	if !ok {
		return
	}

	id, ok := listingID(ctx)

	if !ok {
		return
	}

	var req listing.Step4Request

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	if !h.resolveOwned(ctx, cctx, id, owner.ID) {
		return
	}

	capacity, fieldErrs := req.Validate()

	if fieldErrs != nil {
		RespondValidation(ctx, fieldErrs)
		return
	}

	l, err := h.store.SaveCapacity(cctx, id, owner.ID, capacity)

	h.respondSaved(ctx, l, err, "Step 4 saved")
}

func (h *ListingsHandler) Step5(ctx *gin.Context) {
	owner, ok := currentOwner(ctx)

	if !ok {
		return
	}

	id, ok := listingID(ctx)

	if !ok {
		return
	}

	var req listing.Step5Request

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	if !h.resolveOwned(ctx, cctx, id, owner.ID) {
		return
	}

	amenities, fieldErrs := req.Validate()

	if fieldErrs != nil {
		RespondValidation(ctx, fieldErrs)
		return
	}

	l, err := h.store.SaveAmenities(cctx, id, owner.ID, amenities)

	h.respondSaved(ctx, l, err, "Step 5 saved")
}

func (h *ListingsHandler) Step6(ctx *gin.Context) {
	owner, ok := currentOwner(ctx)

	if !ok {
		return
	}

	id, ok := listingID(ctx)

	if !ok {
		return
	}

	var req listing.Step6Request

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	if !h.resolveOwned(ctx, cctx, id, owner.ID) {
		return
	}

	highlights, fieldErrs := req.Validate()

	if fieldErrs != nil {
		RespondValidation(ctx, fieldErrs)
		return
	}

	l, err := h.store.SaveHighlights(cctx, id, owner.ID, highlights)

	h.respondSaved(ctx, l, err, "Step 6 saved")
}

func (h *ListingsHandler) Step7(ctx *gin.Context) {
	owner, ok := currentOwner(ctx)

	if !ok {
		return
	}

	id, ok := listingID(ctx)

	if !ok {
		return
	}

	var req listing.Step7Request

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	if !h.resolveOwned(ctx, cctx, id, owner.ID) {
		return
	}

	photos, fieldErrs := req.Validate()

	if fieldErrs != nil {
		RespondValidation(ctx, fieldErrs)
		return
	}

	l, err := h.store.SavePhotos(cctx, id, owner.ID, photos)

	h.respondSaved(ctx, l, err, "Step 7 saved")
}

func (h *ListingsHandler) Step8(ctx *gin.Context) {
	owner, ok := currentOwner(ctx)

	if !ok {
		return
	}

	id, ok := listingID(ctx)

	if !ok {
		return
	}

	var req listing.Step8Request

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	if !h.resolveOwned(ctx, cctx, id, owner.ID) {
		return
	}

	title, description, fieldErrs := req.Validate()

	if fieldErrs != nil {
		RespondValidation(ctx, fieldErrs)
		return
	}

	l, err := h.store.SaveDetails(cctx, id, owner.ID, title, description)

	h.respondSaved(ctx, l, err, "Step 8 saved")
}

// Submit moves an unverified owner's draft into the review queue. A
// verified owner's listing stays in DRAFT; the response says which
// happened. Unlike the step routes this endpoint answers 403 to
// non-owners, matching the behavior clients already rely on.
func (h *ListingsHandler) Submit(ctx *gin.Context) {
	owner, ok := currentOwner(ctx)

	if !ok {
		return
	}

	id, ok := listingID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	l, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			RespondNotFound(ctx, "Listing not found")
		} else {
			RespondStorageError(ctx)
		}
		return
	}

	if l.OwnerID != owner.ID {
		RespondForbidden(ctx)
		return
	}

	status := listing.StatusDraft

	if !owner.IsVerified {
		status = listing.StatusPendingVerification
	}

	l, err = h.store.SetStatus(cctx, id, status)

	if err != nil {
		RespondStorageError(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":        "Submitted",
		"listing":        l,
		"owner_verified": owner.IsVerified,
	})
}

func (h *ListingsHandler) GetByID(ctx *gin.Context) {
	owner, ok := currentOwner(ctx)

	if !ok {
		return
	}

	id, ok := listingID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	l, err := h.store.GetForOwner(cctx, id, owner.ID)

	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			RespondNotFound(ctx, "Listing not found")
		} else {
			RespondStorageError(ctx)
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"listing": l})
}

func (h *ListingsHandler) LatestDraft(ctx *gin.Context) {
	owner, ok := currentOwner(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	l, err := h.store.LatestDraft(cctx, owner.ID)

	if err != nil {
		RespondStorageError(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"listing": l})
}

// Feed is the public card list of published listings. An out-of-range or
// unparseable limit falls back to the default rather than the nearest
// bound.
func (h *ListingsHandler) Feed(ctx *gin.Context) {
	filter := listing.FeedFilter{Limit: listing.FeedDefaultLimit}

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err == nil && n >= 1 && n <= listing.FeedMaxLimit {
			filter.Limit = n
		}
	}

	if city := ctx.Query("city"); city != "" {
		filter.City = &city
	}

	cctx, cancel := config.WithTimeout(dbTimeout)

	defer cancel()

	items, err := h.store.Feed(cctx, filter)

	if err != nil {
		RespondStorageError(ctx)
		return
	}

	cards := make([]listing.Card, 0, len(items))

	for _, l := range items {
		cards = append(cards, l.ToCard())
	}

	ctx.JSON(http.StatusOK, gin.H{"listings": cards})
}
