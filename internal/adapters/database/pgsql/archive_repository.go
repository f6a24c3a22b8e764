package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portsrepo "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const archiveColumns = `
	entry_id, message_id, document_type, document_number, direction,
	xml_content, xml_hash, archived_at, archive_path`

type PgxArchiveRepository struct {
	pool *pgxpool.Pool
}

// NewPgxArchiveRepository creates the postgres-backed message archive.
func NewPgxArchiveRepository(pool *pgxpool.Pool) portsrepo.ArchiveRepository {
	return &PgxArchiveRepository{pool: pool}
}

func (r *PgxArchiveRepository) SaveEntry(ctx context.Context, entry domain.ArchiveEntry) error {
	query := `
		INSERT INTO archive_entries (` + archiveColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.pool.Exec(ctx, query,
		entry.EntryID,
		entry.MessageID,
		entry.DocumentType,
		entry.DocumentNumber,
		entry.Direction,
		entry.XMLContent,
		entry.XMLHash,
		entry.ArchivedAt,
		entry.ArchivePath,
	)
	if err != nil {
		return fmt.Errorf("failed to save archive entry %s: %w", entry.EntryID, err)
	}
	return nil
}

func (r *PgxArchiveRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.ArchiveEntry, error) {
	query := `SELECT ` + archiveColumns + ` FROM archive_entries WHERE entry_id = $1;`

	entry, err := scanArchiveEntry(r.pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find archive entry %s: %w", entryID, err)
	}
	return entry, nil
}

// QueryEntries applies the zero-value-means-no-filter query. The document
// number filter matches as a case-insensitive substring.
func (r *PgxArchiveRepository) QueryEntries(ctx context.Context, query domain.ArchiveQuery) ([]domain.ArchiveEntry, error) {
	sql := `SELECT ` + archiveColumns + ` FROM archive_entries WHERE 1=1`
	var args []any

	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if query.MessageID != "" {
		sql += ` AND message_id = ` + next(query.MessageID)
	}
	if query.DocumentNumber != "" {
		sql += ` AND document_number ILIKE ` + next("%"+query.DocumentNumber+"%")
	}
	if query.DocumentType != "" {
		sql += ` AND document_type = ` + next(string(query.DocumentType))
	}
	if query.Direction != "" {
		sql += ` AND direction = ` + next(string(query.Direction))
	}
	if query.From != nil {
		sql += ` AND archived_at >= ` + next(*query.From)
	}
	if query.To != nil {
		sql += ` AND archived_at <= ` + next(*query.To)
	}
	sql += ` ORDER BY archived_at DESC LIMIT ` + next(query.Limit) + `;`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive entries: %w", err)
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ArchiveEntry, error) {
		entry, err := scanArchiveEntry(row)
		if err != nil {
			return domain.ArchiveEntry{}, err
		}
		return *entry, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan archive entries: %w", err)
	}
	return entries, nil
}

// DeleteOlderThan removes entries archived strictly before the cutoff.
func (r *PgxArchiveRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM archive_entries WHERE archived_at < $1;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge archive entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanArchiveEntry(row pgx.Row) (*domain.ArchiveEntry, error) {
	var entry domain.ArchiveEntry
	err := row.Scan(
		&entry.EntryID,
		&entry.MessageID,
		&entry.DocumentType,
		&entry.DocumentNumber,
		&entry.Direction,
		&entry.XMLContent,
		&entry.XMLHash,
		&entry.ArchivedAt,
		&entry.ArchivePath,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
