package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/smartwaste/bin-registry/shared/go-models"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

// BinRepository is the single authoritative owner of bin records.
// GetByBinID returns (nil, nil) when the bin does not exist.
type BinRepository interface {
	Create(ctx context.Context, b *models.Bin) error

	GetByBinID(ctx context.Context, binID string) (*models.Bin, error)
	List(ctx context.Context) ([]*models.Bin, error)

	Update(ctx context.Context, b *models.Bin) error
	UpdateIfVersion(ctx context.Context, b *models.Bin, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, binID string, mutate func(*models.Bin) error) error
	Delete(ctx context.Context, binID string) error
}

/* ------------------------------------------------------------------
   Postgres implementation
------------------------------------------------------------------ */

const binsSchema = `
CREATE TABLE IF NOT EXISTS bins (
    id                   UUID PRIMARY KEY,
    bin_id               TEXT NOT NULL UNIQUE,
    owner_name           TEXT NOT NULL DEFAULT '',
    resident_name        TEXT NOT NULL,
    resident_type        TEXT NOT NULL,
    contact_phone        TEXT NOT NULL,
    contact_email        TEXT NOT NULL,
    bin_type             TEXT NOT NULL,
    bin_size             TEXT NOT NULL,
    location             TEXT NOT NULL DEFAULT '',
    address              TEXT NOT NULL DEFAULT '',
    latitude             DOUBLE PRECISION,
    longitude            DOUBLE PRECISION,
    collection_frequency TEXT NOT NULL,
    status               TEXT NOT NULL,
    fill_level           DOUBLE PRECISION NOT NULL DEFAULT 0,
    monitor_status       TEXT NOT NULL DEFAULT 'EMPTY',
    registration_date    TIMESTAMPTZ NOT NULL,
    next_collection      TIMESTAMPTZ,
    last_collected       TIMESTAMPTZ,
    time_zone            TEXT NOT NULL DEFAULT '',
    qr_payload           TEXT NOT NULL,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    row_version          BIGINT NOT NULL DEFAULT 1,
    CHECK ((latitude IS NULL) = (longitude IS NULL))
);
CREATE INDEX IF NOT EXISTS bins_registration_date_idx ON bins (registration_date);
`

type binRepo struct {
	*BaseVersionedRepo[*models.Bin]
	db DB
}

func NewBinRepository(db DB) BinRepository {
	r := &binRepo{db: db}
	selectStmt := baseSelectBin() + " WHERE bin_id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanBin)
	return r
}

// EnsureBinsSchema creates the bins table when it is missing.
func EnsureBinsSchema(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, binsSchema)
	return err
}

func (r *binRepo) Create(ctx context.Context, b *models.Bin) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt, b.RowVersion = now, now, 1

	lat, lng := coordinatesToFloat8(b.Coordinates)
	_, err := r.db.Exec(ctx, `
        INSERT INTO bins (
            id, bin_id, owner_name, resident_name, resident_type,
            contact_phone, contact_email, bin_type, bin_size,
            location, address, latitude, longitude,
            collection_frequency, status, fill_level, monitor_status,
            registration_date, next_collection, last_collected, time_zone,
            qr_payload, created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,1)
    `,
		b.ID, b.BinID, b.OwnerName, b.ResidentName, string(b.ResidentType),
		b.Contact.Phone, b.Contact.Email, string(b.BinType), string(b.BinSize),
		b.Location, b.Address, lat, lng,
		string(b.CollectionFrequency), string(b.Status), b.FillLevel, string(b.MonitorStatus),
		b.RegistrationDate, b.NextCollection, b.LastCollected, b.TimeZone,
		b.QRPayload, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func (r *binRepo) GetByBinID(ctx context.Context, binID string) (*models.Bin, error) {
	return r.BaseVersionedRepo.GetByID(ctx, binID)
}

func (r *binRepo) List(ctx context.Context) ([]*models.Bin, error) {
	rows, err := r.db.Query(ctx, baseSelectBin()+" ORDER BY registration_date, bin_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Bin
	for rows.Next() {
		b, err := scanBin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *binRepo) Update(ctx context.Context, b *models.Bin) error {
	_, err := r.update(ctx, b, false, 0)
	return err
}

func (r *binRepo) UpdateIfVersion(ctx context.Context, b *models.Bin, expected int64) (pgconn.CommandTag, error) {
	return r.update(ctx, b, true, expected)
}

func (r *binRepo) UpdateWithRetry(ctx context.Context, binID string, mutate func(*models.Bin) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, binID, mutate, r.UpdateIfVersion)
}

func (r *binRepo) update(ctx context.Context, b *models.Bin, check bool, expected int64) (pgconn.CommandTag, error) {
	b.UpdatedAt = time.Now().UTC()
	lat, lng := coordinatesToFloat8(b.Coordinates)

	sql := `
        UPDATE bins SET
            owner_name=$1, resident_name=$2, resident_type=$3,
            contact_phone=$4, contact_email=$5, bin_type=$6, bin_size=$7,
            location=$8, address=$9, latitude=$10, longitude=$11,
            collection_frequency=$12, status=$13, fill_level=$14, monitor_status=$15,
            next_collection=$16, last_collected=$17, time_zone=$18,
            qr_payload=$19, updated_at=$20
    `
	args := []any{
		b.OwnerName, b.ResidentName, string(b.ResidentType),
		b.Contact.Phone, b.Contact.Email, string(b.BinType), string(b.BinSize),
		b.Location, b.Address, lat, lng,
		string(b.CollectionFrequency), string(b.Status), b.FillLevel, string(b.MonitorStatus),
		b.NextCollection, b.LastCollected, b.TimeZone,
		b.QRPayload, b.UpdatedAt,
	}
	if check {
		sql += `, row_version=row_version+1 WHERE bin_id=$21 AND row_version=$22`
		args = append(args, b.BinID, expected)
	} else {
		sql += `, row_version=row_version+1 WHERE bin_id=$21`
		args = append(args, b.BinID)
	}

	return r.db.Exec(ctx, sql, args...)
}

func (r *binRepo) Delete(ctx context.Context, binID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bins WHERE bin_id=$1`, binID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

/* ---------- internals ---------- */

func baseSelectBin() string {
	return `
        SELECT
            id, bin_id, owner_name, resident_name, resident_type,
            contact_phone, contact_email, bin_type, bin_size,
            location, address, latitude, longitude,
            collection_frequency, status, fill_level, monitor_status,
            registration_date, next_collection, last_collected, time_zone,
            qr_payload, created_at, updated_at, row_version
        FROM bins
    `
}

func scanBin(row pgx.Row) (*models.Bin, error) {
	var (
		b        models.Bin
		lat, lng pgtype.Float8
	)
	err := row.Scan(
		&b.ID, &b.BinID, &b.OwnerName, &b.ResidentName, &b.ResidentType,
		&b.Contact.Phone, &b.Contact.Email, &b.BinType, &b.BinSize,
		&b.Location, &b.Address, &lat, &lng,
		&b.CollectionFrequency, &b.Status, &b.FillLevel, &b.MonitorStatus,
		&b.RegistrationDate, &b.NextCollection, &b.LastCollected, &b.TimeZone,
		&b.QRPayload, &b.CreatedAt, &b.UpdatedAt, &b.RowVersion,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	b.Coordinates = float8ToCoordinates(lat, lng)
	return &b, nil
}

func coordinatesToFloat8(c *models.Coordinates) (pgtype.Float8, pgtype.Float8) {
	if c == nil {
		return pgtype.Float8{Status: pgtype.Null}, pgtype.Float8{Status: pgtype.Null}
	}
	return pgtype.Float8{Float: c.Lat, Status: pgtype.Present},
		pgtype.Float8{Float: c.Lng, Status: pgtype.Present}
}

func float8ToCoordinates(lat, lng pgtype.Float8) *models.Coordinates {
	if lat.Status != pgtype.Present || lng.Status != pgtype.Present {
		return nil
	}
	return &models.Coordinates{Lat: lat.Float, Lng: lng.Float}
}
