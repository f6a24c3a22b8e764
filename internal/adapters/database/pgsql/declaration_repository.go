package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portsrepo "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const declarationColumns = `
	declaration_id, document_type, document_number, status, locked,
	trader_name, trader_tax_id, consignee_name, broker_license,
	transport_mode, vessel_name, voyage_number, port_of_loading, port_of_dest,
	incoterm, currency_code, exchange_rate, total_value, total_tax,
	bill_of_lading_number, airway_bill_number,
	ceisa_reference, clearance_number, lane,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxDeclarationRepository struct {
	pool *pgxpool.Pool
}

// NewPgxDeclarationRepository creates the postgres-backed declaration store.
func NewPgxDeclarationRepository(pool *pgxpool.Pool) portsrepo.DeclarationRepository {
	return &PgxDeclarationRepository{pool: pool}
}

// SaveDeclaration inserts the declaration header and its line items in one
// transaction.
func (r *PgxDeclarationRepository) SaveDeclaration(ctx context.Context, declaration domain.Declaration) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO declarations (` + declarationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28);
	`
	_, err = tx.Exec(ctx, query,
		declaration.DeclarationID,
		declaration.DocumentType,
		declaration.DocumentNumber,
		declaration.Status,
		declaration.Locked,
		declaration.TraderName,
		declaration.TraderTaxID,
		declaration.ConsigneeName,
		declaration.BrokerLicense,
		declaration.TransportMode,
		declaration.VesselName,
		declaration.VoyageNumber,
		declaration.PortOfLoading,
		declaration.PortOfDest,
		declaration.Incoterm,
		declaration.CurrencyCode,
		declaration.ExchangeRate,
		declaration.TotalValue,
		declaration.TotalTax,
		declaration.BillOfLadingNumber,
		declaration.AirwayBillNumber,
		declaration.CeisaReference,
		declaration.ClearanceNumber,
		declaration.Lane,
		declaration.CreatedAt,
		declaration.CreatedBy,
		declaration.LastUpdatedAt,
		declaration.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("document number %s: %w", declaration.DocumentNumber, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert declaration %s: %w", declaration.DeclarationID, err)
	}

	if err := insertLineItems(ctx, tx, declaration.Items); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit declaration insert: %w", err)
	}
	return nil
}

func insertLineItems(ctx context.Context, tx pgx.Tx, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO line_items (item_id, declaration_id, sequence, hs_code, description,
		                        quantity, unit_code, unit_value, item_value, tax_rate, item_tax)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	for _, item := range items {
		batch.Queue(query,
			item.ItemID,
			item.DeclarationID,
			item.Sequence,
			item.HSCode,
			item.Description,
			item.Quantity,
			item.UnitCode,
			item.UnitValue,
			item.ItemValue,
			item.TaxRate,
			item.ItemTax,
		)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}
	return nil
}

func (r *PgxDeclarationRepository) FindDeclarationByID(ctx context.Context, declarationID string) (*domain.Declaration, error) {
	return r.findDeclaration(ctx, "declaration_id", declarationID)
}

func (r *PgxDeclarationRepository) FindDeclarationByNumber(ctx context.Context, documentNumber string) (*domain.Declaration, error) {
	return r.findDeclaration(ctx, "document_number", documentNumber)
}

func (r *PgxDeclarationRepository) findDeclaration(ctx context.Context, column, value string) (*domain.Declaration, error) {
	query := `SELECT ` + declarationColumns + ` FROM declarations WHERE ` + column + ` = $1;`

	row := r.pool.QueryRow(ctx, query, value)
	declaration, err := scanDeclaration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find declaration by %s %s: %w", column, value, err)
	}

	items, err := r.loadItems(ctx, declaration.DeclarationID)
	if err != nil {
		return nil, err
	}
	declaration.Items = items
	return declaration, nil
}

func (r *PgxDeclarationRepository) loadItems(ctx context.Context, declarationID string) ([]domain.LineItem, error) {
	query := `
		SELECT item_id, declaration_id, sequence, hs_code, description,
		       quantity, unit_code, unit_value, item_value, tax_rate, item_tax
		FROM line_items
		WHERE declaration_id = $1
		ORDER BY sequence;
	`
	rows, err := r.pool.Query(ctx, query, declarationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items for %s: %w", declarationID, err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LineItem, error) {
		var item domain.LineItem
		err := row.Scan(
			&item.ItemID,
			&item.DeclarationID,
			&item.Sequence,
			&item.HSCode,
			&item.Description,
			&item.Quantity,
			&item.UnitCode,
			&item.UnitValue,
			&item.ItemValue,
			&item.TaxRate,
			&item.ItemTax,
		)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan line items for %s: %w", declarationID, err)
	}
	return items, nil
}

func (r *PgxDeclarationRepository) ListDeclarations(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]domain.Declaration, error) {
	query := `SELECT ` + declarationColumns + `
		FROM declarations
		WHERE ($1 = '' OR document_type = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.pool.Query(ctx, query, string(docType), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list declarations: %w", err)
	}
	defer rows.Close()

	declarations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Declaration, error) {
		d, err := scanDeclaration(row)
		if err != nil {
			return domain.Declaration{}, err
		}
		return *d, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan declarations: %w", err)
	}

	for i := range declarations {
		items, err := r.loadItems(ctx, declarations[i].DeclarationID)
		if err != nil {
			return nil, err
		}
		declarations[i].Items = items
	}
	return declarations, nil
}

// UpdateDeclaration replaces header fields and line items of an unlocked
// declaration. The lock guard lives in SQL so a concurrent lock cannot slip
// between check and write.
func (r *PgxDeclarationRepository) UpdateDeclaration(ctx context.Context, declaration domain.Declaration) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE declarations SET
			trader_name = $2, trader_tax_id = $3, consignee_name = $4, broker_license = $5,
			transport_mode = $6, vessel_name = $7, voyage_number = $8,
			port_of_loading = $9, port_of_dest = $10,
			incoterm = $11, currency_code = $12, exchange_rate = $13,
			total_value = $14, total_tax = $15,
			bill_of_lading_number = $16, airway_bill_number = $17,
			last_updated_at = $18, last_updated_by = $19
		WHERE declaration_id = $1 AND locked = FALSE AND status = 'DRAFT';
	`
	tag, err := tx.Exec(ctx, query,
		declaration.DeclarationID,
		declaration.TraderName,
		declaration.TraderTaxID,
		declaration.ConsigneeName,
		declaration.BrokerLicense,
		declaration.TransportMode,
		declaration.VesselName,
		declaration.VoyageNumber,
		declaration.PortOfLoading,
		declaration.PortOfDest,
		declaration.Incoterm,
		declaration.CurrencyCode,
		declaration.ExchangeRate,
		declaration.TotalValue,
		declaration.TotalTax,
		declaration.BillOfLadingNumber,
		declaration.AirwayBillNumber,
		declaration.LastUpdatedAt,
		declaration.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update declaration %s: %w", declaration.DeclarationID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.guardFailure(ctx, declaration.DeclarationID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE declaration_id = $1;`, declaration.DeclarationID); err != nil {
		return fmt.Errorf("failed to clear line items for %s: %w", declaration.DeclarationID, err)
	}
	if err := insertLineItems(ctx, tx, declaration.Items); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit declaration update: %w", err)
	}
	return nil
}

// guardFailure disambiguates a zero-row guarded update: missing row or
// locked row.
func (r *PgxDeclarationRepository) guardFailure(ctx context.Context, declarationID string) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM declarations WHERE declaration_id = $1);`, declarationID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check declaration %s: %w", declarationID, err)
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrDocumentLocked
}

func (r *PgxDeclarationRepository) DeleteDeclaration(ctx context.Context, declarationID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM declarations WHERE declaration_id = $1 AND locked = FALSE AND status = 'DRAFT';`,
		declarationID)
	if err != nil {
		return fmt.Errorf("failed to delete declaration %s: %w", declarationID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.guardFailure(ctx, declarationID)
	}
	return nil
}

// MarkSubmitted transitions DRAFT -> SUBMITTED and sets the lock in a
// single guarded statement; there is no window where the record is
// submitted but still editable.
func (r *PgxDeclarationRepository) MarkSubmitted(ctx context.Context, declarationID, userID string, now time.Time) error {
	query := `
		UPDATE declarations
		SET status = 'SUBMITTED', locked = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE declaration_id = $1 AND status = 'DRAFT' AND locked = FALSE;
	`
	tag, err := r.pool.Exec(ctx, query, declarationID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to mark declaration %s submitted: %w", declarationID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.guardFailure(ctx, declarationID)
	}
	return nil
}

func (r *PgxDeclarationRepository) UpdateStatus(ctx context.Context, declarationID string, from, to domain.DeclarationStatus, locked bool, userID string, now time.Time) error {
	query := `
		UPDATE declarations
		SET status = $3, locked = $4, last_updated_at = $5, last_updated_by = $6
		WHERE declaration_id = $1 AND status = $2;
	`
	tag, err := r.pool.Exec(ctx, query, declarationID, from, to, locked, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of declaration %s: %w", declarationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxDeclarationRepository) SetAuthorityReferences(ctx context.Context, declarationID, ceisaReference, clearanceNumber, lane string, now time.Time) error {
	query := `
		UPDATE declarations
		SET ceisa_reference = COALESCE(NULLIF($2, ''), ceisa_reference),
		    clearance_number = COALESCE(NULLIF($3, ''), clearance_number),
		    lane = COALESCE(NULLIF($4, ''), lane),
		    last_updated_at = $5
		WHERE declaration_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, declarationID, ceisaReference, clearanceNumber, lane, now)
	if err != nil {
		return fmt.Errorf("failed to set authority references on %s: %w", declarationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkLocked finalizes a record: locked=TRUE and status COMPLETED in one
// guarded statement, mirroring MarkSubmitted.
func (r *PgxDeclarationRepository) MarkLocked(ctx context.Context, declarationID, userID string, now time.Time) error {
	query := `
		UPDATE declarations
		SET status = 'COMPLETED', locked = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE declaration_id = $1 AND locked = FALSE;
	`
	tag, err := r.pool.Exec(ctx, query, declarationID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to mark declaration %s locked: %w", declarationID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.guardFailure(ctx, declarationID)
	}
	return nil
}

func (r *PgxDeclarationRepository) SetLocked(ctx context.Context, declarationID string, locked bool, userID string, now time.Time) error {
	query := `
		UPDATE declarations
		SET locked = $2, last_updated_at = $3, last_updated_by = $4
		WHERE declaration_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, declarationID, locked, now, userID)
	if err != nil {
		return fmt.Errorf("failed to set lock on declaration %s: %w", declarationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanDeclaration(row pgx.Row) (*domain.Declaration, error) {
	var d domain.Declaration
	err := row.Scan(
		&d.DeclarationID,
		&d.DocumentType,
		&d.DocumentNumber,
		&d.Status,
		&d.Locked,
		&d.TraderName,
		&d.TraderTaxID,
		&d.ConsigneeName,
		&d.BrokerLicense,
		&d.TransportMode,
		&d.VesselName,
		&d.VoyageNumber,
		&d.PortOfLoading,
		&d.PortOfDest,
		&d.Incoterm,
		&d.CurrencyCode,
		&d.ExchangeRate,
		&d.TotalValue,
		&d.TotalTax,
		&d.BillOfLadingNumber,
		&d.AirwayBillNumber,
		&d.CeisaReference,
		&d.ClearanceNumber,
		&d.Lane,
		&d.CreatedAt,
		&d.CreatedBy,
		&d.LastUpdatedAt,
		&d.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
