package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/repository"
)

const defaultSearchLimit = 500

const documentColumns = `
	id, code, doc_type, mmm, gggg, seq, vvv, revision, state, obs_prev_state, description,
	checked_out, checkout_owner_user, checkout_owner_host, checkout_at,
	file_wip_path, file_rel_path, file_inrev_path,
	file_wip_drw_path, file_rel_drw_path, file_inrev_drw_path,
	created_at, updated_at`

// DocumentRepository implements document.Repository for SQLite
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*document.Document, error) {
	var doc document.Document
	var checkoutAt sql.NullTime
	err := row.Scan(
		&doc.ID, &doc.Code, &doc.DocType, &doc.MMM, &doc.GGGG, &doc.Seq, &doc.VVV,
		&doc.Revision, &doc.State, &doc.ObsPrevState, &doc.Description,
		&doc.CheckedOut, &doc.CheckoutUser, &doc.CheckoutHost, &checkoutAt,
		&doc.WIPPath, &doc.RELPath, &doc.InRevPath,
		&doc.WIPDrawingPath, &doc.RELDrawingPath, &doc.InRevDrawingPath,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if checkoutAt.Valid {
		t := checkoutAt.Time
		doc.CheckoutAt = &t
	}
	return &doc, nil
}

// Create inserts a document and returns the new tick.
func (r *DocumentRepository) Create(ctx context.Context, doc *document.Document) (int64, error) {
	var tick int64
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO documents (
				code, doc_type, mmm, gggg, seq, vvv, revision, state, obs_prev_state, description,
				file_wip_path, file_rel_path, file_inrev_path,
				file_wip_drw_path, file_rel_drw_path, file_inrev_drw_path,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.Code, doc.DocType, doc.MMM, doc.GGGG, doc.Seq, doc.VVV, doc.Revision, doc.State, doc.ObsPrevState, doc.Description,
			doc.WIPPath, doc.RELPath, doc.InRevPath,
			doc.WIPDrawingPath, doc.RELDrawingPath, doc.InRevDrawingPath,
			doc.CreatedAt, doc.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicate
			}
			return fmt.Errorf("failed to create document: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			doc.ID = id
		}
		tick, err = bumpTick(ctx, tx)
		return err
	})
	return tick, err
}

// Get retrieves a document by code
func (r *DocumentRepository) Get(ctx context.Context, code string) (*document.Document, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE code = ?", code)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// Update writes the lifecycle fields of doc, keyed by code. The
// description is written only by UpdateDescription.
func (r *DocumentRepository) Update(ctx context.Context, doc *document.Document) (int64, error) {
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	var tick int64
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE documents SET
				revision = ?, state = ?, obs_prev_state = ?,
				file_wip_path = ?, file_rel_path = ?, file_inrev_path = ?,
				file_wip_drw_path = ?, file_rel_drw_path = ?, file_inrev_drw_path = ?,
				updated_at = ?
			WHERE code = ?`,
			doc.Revision, doc.State, doc.ObsPrevState,
			doc.WIPPath, doc.RELPath, doc.InRevPath,
			doc.WIPDrawingPath, doc.RELDrawingPath, doc.InRevDrawingPath,
			doc.UpdatedAt, doc.Code,
		)
		if err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update: %w", err)
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		tick, err = bumpTick(ctx, tx)
		return err
	})
	return tick, err
}

// UpdateDescription sets the description of code without touching its
// lifecycle columns.
func (r *DocumentRepository) UpdateDescription(ctx context.Context, code, description string, at time.Time) (int64, error) {
	var tick int64
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE documents SET description = ?, updated_at = ? WHERE code = ?`,
			description, at, code,
		)
		if err != nil {
			return fmt.Errorf("failed to update description: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update: %w", err)
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		tick, err = bumpTick(ctx, tx)
		return err
	})
	return tick, err
}

// Search lists documents by filter, matching Query against the full-text
// index over code and description or as a code substring.
func (r *DocumentRepository) Search(ctx context.Context, filter document.SearchFilter) ([]document.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents WHERE 1=1"
	var args []any

	if q := strings.TrimSpace(filter.Query); q != "" {
		query += ` AND (id IN (SELECT rowid FROM documents_fts WHERE documents_fts MATCH ?) OR code LIKE ? ESCAPE '\')`
		args = append(args, ftsQuery(q), "%"+escapeLike(strings.ToUpper(q))+"%")
	}
	if filter.MMM != "" {
		query += " AND mmm = ?"
		args = append(args, filter.MMM)
	}
	if filter.GGGG != "" {
		query += " AND gggg = ?"
		args = append(args, filter.GGGG)
	}
	if filter.VVV != "" {
		query += " AND vvv = ?"
		args = append(args, filter.VVV)
	}
	if filter.DocType != "" {
		query += " AND doc_type = ?"
		args = append(args, filter.DocType)
	}
	switch {
	case filter.State != "":
		query += " AND state = ?"
		args = append(args, filter.State)
	case !filter.IncludeObs:
		query += " AND state <> 'OBS'"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	query += " ORDER BY code LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return docs, nil
}

// ftsQuery turns free text into an FTS5 query: every term is quoted so
// punctuation in codes is literal, and the last term matches as a prefix.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	terms[len(terms)-1] += "*"
	return strings.Join(terms, " ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SetCheckout marks code as checked out by user. The owner may refresh
// their own checkout; REL and OBS documents cannot be checked out.
func (r *DocumentRepository) SetCheckout(ctx context.Context, code, user, host string, at time.Time) (int64, error) {
	var tick int64
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var state document.State
		var checkedOut bool
		var owner string
		err := tx.QueryRowContext(ctx,
			"SELECT state, checked_out, checkout_owner_user FROM documents WHERE code = ?", code,
		).Scan(&state, &checkedOut, &owner)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read checkout: %w", err)
		}
		if state == document.StateREL || state == document.StateOBS {
			return fmt.Errorf("%w: %s is %s", document.ErrCheckoutNotAllowed, code, state)
		}
		if checkedOut && owner != "" && !strings.EqualFold(owner, user) {
			return fmt.Errorf("%w: %s", document.ErrCheckedOutByOther, owner)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE documents
			SET checked_out = 1, checkout_owner_user = ?, checkout_owner_host = ?, checkout_at = ?, updated_at = ?
			WHERE code = ?`,
			user, host, at, at, code,
		); err != nil {
			return fmt.Errorf("failed to check out document: %w", err)
		}
		tick, err = bumpTick(ctx, tx)
		return err
	})
	return tick, err
}

// ClearCheckout releases a checkout. Clearing a document that is not
// checked out is a no-op that still reports the current tick.
func (r *DocumentRepository) ClearCheckout(ctx context.Context, code, user string, force bool) (int64, error) {
	var tick int64
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var checkedOut bool
		var owner string
		err := tx.QueryRowContext(ctx,
			"SELECT checked_out, checkout_owner_user FROM documents WHERE code = ?", code,
		).Scan(&checkedOut, &owner)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read checkout: %w", err)
		}
		if !checkedOut {
			return tx.QueryRowContext(ctx, "SELECT tick FROM catalog_state WHERE id = 1").Scan(&tick)
		}
		if !force && owner != "" && !strings.EqualFold(owner, user) {
			return fmt.Errorf("%w: %s", document.ErrCheckedOutByOther, owner)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE documents
			SET checked_out = 0, checkout_owner_user = '', checkout_owner_host = '', checkout_at = NULL, updated_at = ?
			WHERE code = ?`,
			time.Now().UTC(), code,
		); err != nil {
			return fmt.Errorf("failed to check in document: %w", err)
		}
		tick, err = bumpTick(ctx, tx)
		return err
	})
	return tick, err
}

// ListAll returns every document, OBS included, ordered by code.
func (r *DocumentRepository) ListAll(ctx context.Context) ([]document.Document, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return docs, nil
}

var _ document.Repository = (*DocumentRepository)(nil)
