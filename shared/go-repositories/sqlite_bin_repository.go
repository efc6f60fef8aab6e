package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/smartwaste/bin-registry/shared/go-models"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// Timestamps are stored as unix nanoseconds; coordinates are nullable REALs.
const sqliteBinsSchema = `
CREATE TABLE IF NOT EXISTS bins (
    id                   TEXT PRIMARY KEY,
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
    latitude             REAL,
    longitude            REAL,
    collection_frequency TEXT NOT NULL,
    status               TEXT NOT NULL,
    fill_level           REAL NOT NULL DEFAULT 0,
    monitor_status       TEXT NOT NULL DEFAULT 'EMPTY',
    registration_date    INTEGER NOT NULL,
    next_collection      INTEGER,
    last_collected       INTEGER,
    time_zone            TEXT NOT NULL DEFAULT '',
    qr_payload           TEXT NOT NULL,
    created_at           INTEGER NOT NULL,
    updated_at           INTEGER NOT NULL,
    row_version          INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS bins_registration_date_idx ON bins (registration_date);
`

const sqliteSelectBin = `
    SELECT
        id, bin_id, owner_name, resident_name, resident_type,
        contact_phone, contact_email, bin_type, bin_size,
        location, address, latitude, longitude,
        collection_frequency, status, fill_level, monitor_status,
        registration_date, next_collection, last_collected, time_zone,
        qr_payload, created_at, updated_at, row_version
    FROM bins
`

// SQLiteBinRepository keeps bins in a local SQLite file. Used for
// single-node deployments and as the default development store.
type SQLiteBinRepository struct {
	db *sql.DB
}

var _ BinRepository = (*SQLiteBinRepository)(nil)

// NewSQLiteBinRepository opens (creating if needed) the database at dbPath
// and applies the schema.
func NewSQLiteBinRepository(dbPath string) (*SQLiteBinRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer keeps SQLITE_BUSY out of the retry loop
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteBinsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLiteBinRepository{db: db}, nil
}

func (r *SQLiteBinRepository) Close() error { return r.db.Close() }

// Ping reports whether the database file is reachable.
func (r *SQLiteBinRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *SQLiteBinRepository) Create(ctx context.Context, b *models.Bin) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt, b.RowVersion = now, now, 1

	lat, lng := coordinatesToFloat8(b.Coordinates)
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO bins (
            id, bin_id, owner_name, resident_name, resident_type,
            contact_phone, contact_email, bin_type, bin_size,
            location, address, latitude, longitude,
            collection_frequency, status, fill_level, monitor_status,
            registration_date, next_collection, last_collected, time_zone,
            qr_payload, created_at, updated_at, row_version
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,1)
    `,
		b.ID.String(), b.BinID, b.OwnerName, b.ResidentName, string(b.ResidentType),
		b.Contact.Phone, b.Contact.Email, string(b.BinType), string(b.BinSize),
		b.Location, b.Address, lat, lng,
		string(b.CollectionFrequency), string(b.Status), b.FillLevel, string(b.MonitorStatus),
		b.RegistrationDate.UnixNano(), nullableUnix(b.NextCollection), nullableUnix(b.LastCollected), b.TimeZone,
		b.QRPayload, b.CreatedAt.UnixNano(), b.UpdatedAt.UnixNano(),
	)
	return err
}

func (r *SQLiteBinRepository) GetByBinID(ctx context.Context, binID string) (*models.Bin, error) {
	row := r.db.QueryRowContext(ctx, sqliteSelectBin+" WHERE bin_id=?", binID)
	return scanSQLiteBin(row)
}

func (r *SQLiteBinRepository) List(ctx context.Context) ([]*models.Bin, error) {
	rows, err := r.db.QueryContext(ctx, sqliteSelectBin+" ORDER BY registration_date, bin_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Bin
	for rows.Next() {
		b, err := scanSQLiteBin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteBinRepository) Update(ctx context.Context, b *models.Bin) error {
	_, err := r.update(ctx, b, false, 0)
	return err
}

func (r *SQLiteBinRepository) UpdateIfVersion(ctx context.Context, b *models.Bin, expected int64) (pgconn.CommandTag, error) {
	return r.update(ctx, b, true, expected)
}

func (r *SQLiteBinRepository) UpdateWithRetry(ctx context.Context, binID string, mutate func(*models.Bin) error) error {
	return WithRetry(ctx, DefaultMaxRetries, binID, r.GetByBinID, r.UpdateIfVersion, mutate)
}

func (r *SQLiteBinRepository) update(ctx context.Context, b *models.Bin, check bool, expected int64) (pgconn.CommandTag, error) {
	b.UpdatedAt = time.Now().UTC()
	lat, lng := coordinatesToFloat8(b.Coordinates)

	query := `
        UPDATE bins SET
            owner_name=?, resident_name=?, resident_type=?,
            contact_phone=?, contact_email=?, bin_type=?, bin_size=?,
            location=?, address=?, latitude=?, longitude=?,
            collection_frequency=?, status=?, fill_level=?, monitor_status=?,
            next_collection=?, last_collected=?, time_zone=?,
            qr_payload=?, updated_at=?, row_version=row_version+1
        WHERE bin_id=?
    `
	args := []any{
		b.OwnerName, b.ResidentName, string(b.ResidentType),
		b.Contact.Phone, b.Contact.Email, string(b.BinType), string(b.BinSize),
		b.Location, b.Address, lat, lng,
		string(b.CollectionFrequency), string(b.Status), b.FillLevel, string(b.MonitorStatus),
		nullableUnix(b.NextCollection), nullableUnix(b.LastCollected), b.TimeZone,
		b.QRPayload, b.UpdatedAt.UnixNano(), b.BinID,
	}
	if check {
		query += ` AND row_version=?`
		args = append(args, expected)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	return commandTag("UPDATE", n), nil
}

func (r *SQLiteBinRepository) Delete(ctx context.Context, binID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bins WHERE bin_id=?`, binID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

/* ---------- internals ---------- */

func scanSQLiteBin(row pgx.Row) (*models.Bin, error) {
	var (
		b                         models.Bin
		id                        string
		lat, lng                  pgtype.Float8
		registered, created, upd  int64
		nextCollection, collected sql.NullInt64
	)
	err := row.Scan(
		&id, &b.BinID, &b.OwnerName, &b.ResidentName, &b.ResidentType,
		&b.Contact.Phone, &b.Contact.Email, &b.BinType, &b.BinSize,
		&b.Location, &b.Address, &lat, &lng,
		&b.CollectionFrequency, &b.Status, &b.FillLevel, &b.MonitorStatus,
		&registered, &nextCollection, &collected, &b.TimeZone,
		&b.QRPayload, &created, &upd, &b.RowVersion,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if b.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("corrupt bin id %q: %w", id, err)
	}
	b.Coordinates = float8ToCoordinates(lat, lng)
	b.RegistrationDate = time.Unix(0, registered).UTC()
	b.CreatedAt = time.Unix(0, created).UTC()
	b.UpdatedAt = time.Unix(0, upd).UTC()
	b.NextCollection = fromNullableUnix(nextCollection)
	b.LastCollected = fromNullableUnix(collected)
	return &b, nil
}

func nullableUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNullableUnix(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(0, n.Int64).UTC()
	return &t
}
