package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vistahr/stayhub/internal/domain/listing"
	"github.com/vistahr/stayhub/internal/observability"
)

type ListingsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewListingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ListingsRepo {
	return &ListingsRepo{pool: pool, prom: prom}
}

const listingColumns = `id, owner_id, status, current_step, place_type, space_type,
	location, capacity, amenities, highlights, photos, title, description,
	created_at, updated_at`

func scanListing(row pgx.Row) (listing.Listing, error) {
	var l listing.Listing

	err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.Status,
		&l.CurrentStep,
		&l.PlaceType,
		&l.SpaceType,
		&l.Location,
		&l.Capacity,
		&l.Amenities,
		&l.Highlights,
		&l.Photos,
		&l.Title,
		&l.Description,
		&l.CreatedAt,
		&l.UpdatedAt,
	)

	return l, err
}

func (r *ListingsRepo) Create(ctx context.Context, ownerID int64, placeType *string) (listing.Listing, error) {
	var l listing.Listing

	err := r.prom.ObserveDB("listings.create", func() error {
		var err error

		l, err = scanListing(r.pool.QueryRow(
			ctx,
			`INSERT INTO listings (owner_id, status, current_step, place_type)
			 VALUES ($1, 'DRAFT', 1, $2)
			 RETURNING `+listingColumns,
			ownerID, placeType,
		))

		return err
	})

	if err != nil {
		return listing.Listing{}, err
	}

	return l, nil
}

// GetForOwner scopes the lookup to the caller: a listing that exists but
// belongs to someone else is indistinguishable from one that does not.
func (r *ListingsRepo) GetForOwner(ctx context.Context, id, ownerID int64) (listing.Listing, error) {
	var l listing.Listing

	err := r.prom.ObserveDB("listings.get_for_owner", func() error {
		var err error

		l, err = scanListing(r.pool.QueryRow(
			ctx,
			`SELECT `+listingColumns+` FROM listings WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		))

		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return listing.Listing{}, listing.ErrNotFound
		}

		return listing.Listing{}, err
	}

	return l, nil
}

func (r *ListingsRepo) GetByID(ctx context.Context, id int64) (listing.Listing, error) {
	var l listing.Listing

	err := r.prom.ObserveDB("listings.get_by_id", func() error {
		var err error

		l, err = scanListing(r.pool.QueryRow(
			ctx,
			`SELECT `+listingColumns+` FROM listings WHERE id = $1`,
			id,
		))

		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return listing.Listing{}, listing.ErrNotFound
		}

		return listing.Listing{}, err
	}

	return l, nil
}

// LatestDraft returns the caller's most recently touched DRAFT, or nil.
func (r *ListingsRepo) LatestDraft(ctx context.Context, ownerID int64) (*listing.Listing, error) {
	var l listing.Listing

	err := r.prom.ObserveDB("listings.latest_draft", func() error {
		var err error

		l, err = scanListing(r.pool.QueryRow(
			ctx,
			`SELECT `+listingColumns+`
			 FROM listings
			 WHERE owner_id = $1 AND status = 'DRAFT'
			 ORDER BY updated_at DESC
			 LIMIT 1`,
			ownerID,
		))

		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &l, nil
}

// stepColumns whitelists what each wizard step is allowed to write. A step
// handler never touches another step's column.
var stepColumns = map[int16]string{
	2: "space_type",
	3: "location",
	4: "capacity",
	5: "amenities",
	6: "highlights",
	7: "photos",
}

// saveStep persists a single step's value in one statement. Ownership,
// monotonic step advancement and the updated_at refresh all ride on the
// same UPDATE, so there is no partially-applied state to roll back.
func (r *ListingsRepo) saveStep(ctx context.Context, id, ownerID int64, step int16, value any) (listing.Listing, error) {
	column, ok := stepColumns[step]

	if !ok {
		return listing.Listing{}, fmt.Errorf("no column for step %d", step)
	}

	var l listing.Listing

	op := "listings.save_step_" + column

	err := r.prom.ObserveDB(op, func() error {
		var err error

		l, err = scanListing(r.pool.QueryRow(
			ctx,
			fmt.Sprintf(`UPDATE listings
			 SET %s = $3,
			     current_step = GREATEST(current_step, $4),
			     updated_at = NOW()
			 WHERE id = $1 AND owner_id = $2
			 RETURNING `+listingColumns, column),
			id, ownerID, value, step,
		))

		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return listing.Listing{}, listing.ErrNotFound
		}

		return listing.Listing{}, err
	}

	return l, nil
}

func (r *ListingsRepo) SaveSpaceType(ctx context.Context, id, ownerID int64, spaceType string) (listing.Listing, error) {
	return r.saveStep(ctx, id, ownerID, 2, spaceType)
}

func (r *ListingsRepo) SaveLocation(ctx context.Context, id, ownerID int64, loc listing.Location) (listing.Listing, error) {
	return r.saveStep(ctx, id, ownerID, 3, loc)
}

func (r *ListingsRepo) SaveCapacity(ctx context.Context, id, ownerID int64, capacity listing.Capacity) (listing.Listing, error) {
	return r.saveStep(ctx, id, ownerID, 4, capacity)
}

func (r *ListingsRepo) SaveAmenities(ctx context.Context, id, ownerID int64, am listing.Amenities) (listing.Listing, error) {
	return r.saveStep(ctx, id, ownerID, 5, am)
}

func (r *ListingsRepo) SaveHighlights(ctx context.Context, id, ownerID int64, highlights []string) (listing.Listing, error) {
	return r.saveStep(ctx, id, ownerID, 6, highlights)
}

func (r *ListingsRepo) SavePhotos(ctx context.Context, id, ownerID int64, photos []string) (listing.Listing, error) {
	return r.saveStep(ctx, id, ownerID, 7, photos)
}

// SaveDetails is step 8: the only step writing two columns.
func (r *ListingsRepo) SaveDetails(ctx context.Context, id, ownerID int64, title, description string) (listing.Listing, error) {
	var l listing.Listing

	err := r.prom.ObserveDB("listings.save_details", func() error {
		var err error

		l, err = scanListing(r.pool.QueryRow(
			ctx,
			`UPDATE listings
			 SET title = $3,
			     description = $4,
			     current_step = GREATEST(current_step, 8),
			     updated_at = NOW()
			 WHERE id = $1 AND owner_id = $2
			 RETURNING `+listingColumns,
			id, ownerID, title, description,
		))

		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return listing.Listing{}, listing.ErrNotFound
		}

		return listing.Listing{}, err
	}

	return l, nil
}

func (r *ListingsRepo) SetStatus(ctx context.Context, id int64, status string) (listing.Listing, error) {
	var l listing.Listing

	err := r.prom.ObserveDB("listings.set_status", func() error {
		var err error

		l, err = scanListing(r.pool.QueryRow(
			ctx,
			`UPDATE listings
			 SET status = $2,
			     updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+listingColumns,
			id, status,
		))

		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return listing.Listing{}, listing.ErrNotFound
		}

		return listing.Listing{}, err
	}

	return l, nil
}

// Feed lists published listings for the public surface, newest first.
func (r *ListingsRepo) Feed(ctx context.Context, filter listing.FeedFilter) ([]listing.Listing, error) {
	conds := []string{"status = 'PUBLISHED'"}
	args := []interface{}{}

	argsPosition := 1

	if filter.City != nil {
		conds = append(conds, fmt.Sprintf("location->>'city' ILIKE $%d", argsPosition))
		args = append(args, "%"+*filter.City+"%")
		argsPosition++
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(" ORDER BY updated_at DESC, id DESC LIMIT $%d", argsPosition)

	args = append(args, filter.Limit)

	var out []listing.Listing

	err := r.prom.ObserveDB("listings.feed", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]listing.Listing, 0, filter.Limit)

		for rows.Next() {
			l, err := scanListing(rows)

			if err != nil {
				return err
			}

			out = append(out, l)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}
