package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
	"talentkyc/pkg/platform/sentinel"
	"talentkyc/pkg/platform/tx"
)

const uniqueViolation = "23505"

const documentColumns = `id, owner_id, document_type, status, file_ref, file_name, submitted_at,
	decided_at, expires_at, updated_at, rejection_reason, review_notes, claimed_by, version,
	retired_at, superseded_by`

// PostgresStore keeps documents in the documents table and their ledger in
// document_history. Status changes and history appends share a transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		return s.insert(ctx, doc)
	})
}

// CreateReplacing retires prior (compare-and-swap on expectedVersion) and
// inserts doc in one transaction.
func (s *PostgresStore) CreateReplacing(ctx context.Context, doc, prior *models.Document, expectedVersion int64) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.ExecerFrom(ctx, s.db)
		res, err := exec.ExecContext(ctx, `
			UPDATE documents
			SET retired_at = $3, superseded_by = NULL, updated_at = $4, version = version + 1
			WHERE id = $1 AND version = $2 AND retired_at IS NULL
		`, uuid.UUID(prior.ID), expectedVersion, prior.RetiredAt, prior.UpdatedAt)
		if err != nil {
			return fmt.Errorf("retire document %s: %w", prior.ID, err)
		}
		if err := s.checkAffected(ctx, res, prior.ID); err != nil {
			return err
		}
		if err := s.insert(ctx, doc); err != nil {
			return err
		}
		// superseded_by references the new row, so it is set once that row exists.
		if _, err := exec.ExecContext(ctx,
			`UPDATE documents SET superseded_by = $2 WHERE id = $1`,
			uuid.UUID(prior.ID), uuid.UUID(doc.ID),
		); err != nil {
			return fmt.Errorf("link superseded document %s: %w", prior.ID, err)
		}
		prior.Version = expectedVersion + 1
		return nil
	})
}

func (s *PostgresStore) insert(ctx context.Context, doc *models.Document) error {
	exec := tx.ExecerFrom(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		uuid.UUID(doc.ID), doc.OwnerID.String(), string(doc.Type), string(doc.Status),
		doc.FileRef, doc.FileName, doc.SubmittedAt, doc.DecidedAt, doc.ExpiresAt, doc.UpdatedAt,
		doc.RejectionReason, doc.ReviewNotes, doc.ClaimedBy.String(), doc.Version,
		doc.RetiredAt, nullableID(doc.SupersededBy),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert document %s: %w", doc.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert document %s: %w", doc.ID, err)
	}
	return s.appendHistory(ctx, doc.ID, doc.History)
}

// Update writes doc if the stored version still equals expectedVersion and
// appends the history entries the caller added since loading it.
func (s *PostgresStore) Update(ctx context.Context, doc *models.Document, expectedVersion int64) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.ExecerFrom(ctx, s.db)
		res, err := exec.ExecContext(ctx, `
			UPDATE documents
			SET status = $3, decided_at = $4, expires_at = $5, updated_at = $6,
			    rejection_reason = $7, review_notes = $8, claimed_by = $9, version = version + 1
			WHERE id = $1 AND version = $2
		`,
			uuid.UUID(doc.ID), expectedVersion, string(doc.Status), doc.DecidedAt, doc.ExpiresAt,
			doc.UpdatedAt, doc.RejectionReason, doc.ReviewNotes, doc.ClaimedBy.String(),
		)
		if err != nil {
			return fmt.Errorf("update document %s: %w", doc.ID, err)
		}
		if err := s.checkAffected(ctx, res, doc.ID); err != nil {
			return err
		}

		var stored int
		if err := exec.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sequence), 0) FROM document_history WHERE document_id = $1`,
			uuid.UUID(doc.ID),
		).Scan(&stored); err != nil {
			return fmt.Errorf("read history head %s: %w", doc.ID, err)
		}
		var added []models.HistoryEntry
		for _, e := range doc.History {
			if e.Sequence > stored {
				added = append(added, e)
			}
		}
		if err := s.appendHistory(ctx, doc.ID, added); err != nil {
			return err
		}
		doc.Version = expectedVersion + 1
		return nil
	})
}

// checkAffected turns a zero-row conditional update into ErrNotFound or
// ErrConflict.
func (s *PostgresStore) checkAffected(ctx context.Context, res sql.Result, docID id.DocumentID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := tx.ExecerFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, uuid.UUID(docID),
	).Scan(&exists); err != nil {
		return fmt.Errorf("check document %s: %w", docID, err)
	}
	if !exists {
		return fmt.Errorf("document %s: %w", docID, sentinel.ErrNotFound)
	}
	return fmt.Errorf("document %s: %w", docID, sentinel.ErrConflict)
}

func (s *PostgresStore) appendHistory(ctx context.Context, docID id.DocumentID, entries []models.HistoryEntry) error {
	exec := tx.ExecerFrom(ctx, s.db)
	for _, e := range entries {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO document_history (document_id, sequence, status, performed_at, performed_by, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.UUID(docID), e.Sequence, string(e.Status), e.Timestamp, e.PerformedBy, e.Notes)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("history %s/%d: %w", docID, e.Sequence, sentinel.ErrConflict)
			}
			return fmt.Errorf("append history %s/%d: %w", docID, e.Sequence, err)
		}
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	row := tx.ExecerFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, uuid.UUID(docID))
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", docID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find document %s: %w", docID, err)
	}
	doc.History, err = s.loadHistory(ctx, docID)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PostgresStore) History(ctx context.Context, docID id.DocumentID) ([]models.HistoryEntry, error) {
	var exists bool
	if err := tx.ExecerFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, uuid.UUID(docID),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check document %s: %w", docID, err)
	}
	if !exists {
		return nil, fmt.Errorf("document %s: %w", docID, sentinel.ErrNotFound)
	}
	return s.loadHistory(ctx, docID)
}

func (s *PostgresStore) loadHistory(ctx context.Context, docID id.DocumentID) ([]models.HistoryEntry, error) {
	rows, err := tx.ExecerFrom(ctx, s.db).QueryContext(ctx, `
		SELECT sequence, status, performed_at, performed_by, notes
		FROM document_history
		WHERE document_id = $1
		ORDER BY sequence
	`, uuid.UUID(docID))
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", docID, err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var status string
		if err := rows.Scan(&e.Sequence, &status, &e.Timestamp, &e.PerformedBy, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan history %s: %w", docID, err)
		}
		e.Status = models.VerificationStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.OwnerID) ([]*models.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = $1 ORDER BY submitted_at, id`,
		owner.String())
}

func (s *PostgresStore) Query(ctx context.Context, q models.QueueQuery) ([]*models.Document, int, error) {
	where, args := queueWhere(q, true)

	var total int
	if err := tx.ExecerFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count queue: %w", err)
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE ` + where + ` ORDER BY submitted_at, id`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	args = append(args, q.Offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	items, err := s.queryDocuments(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context, q models.QueueQuery) (map[models.VerificationStatus]int, error) {
	where, args := queueWhere(q, false)
	rows, err := tx.ExecerFrom(ctx, s.db).QueryContext(ctx,
		`SELECT status, COUNT(*) FROM documents WHERE `+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.VerificationStatus]int, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		counts[st] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.VerificationStatus(status)] = n
	}
	return counts, rows.Err()
}

func (s *PostgresStore) ListExpiring(ctx context.Context, now time.Time, limit int) ([]*models.Document, error) {
	return s.queryDocuments(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE status = $1 AND retired_at IS NULL AND expires_at IS NOT NULL AND expires_at <= $2
		ORDER BY expires_at, id
		LIMIT $3
	`, string(models.StatusVerified), now, limit)
}

func (s *PostgresStore) Generation(ctx context.Context, owner id.OwnerID) (models.Generation, error) {
	var gen models.Generation
	var latest sql.NullTime
	if err := tx.ExecerFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(version), 0), MAX(updated_at)
		FROM documents WHERE owner_id = $1
	`, owner.String()).Scan(&gen.Count, &gen.VersionSum, &latest); err != nil {
		return models.Generation{}, fmt.Errorf("document generation: %w", err)
	}
	if latest.Valid {
		gen.LatestUpdate = latest.Time
	}
	return gen, nil
}

func (s *PostgresStore) queryDocuments(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	rows, err := tx.ExecerFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// queueWhere builds the shared filter of Query and CountByStatus.
func queueWhere(q models.QueueQuery, withStatus bool) (string, []any) {
	clauses := []string{"retired_at IS NULL"}
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if q.DocumentType != "" {
		clauses = append(clauses, "document_type = "+next(string(q.DocumentType)))
	}
	if withStatus && len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, st := range q.Statuses {
			statuses[i] = string(st)
		}
		clauses = append(clauses, "status = ANY("+next(pq.Array(statuses))+"::text[])")
	}
	if term := strings.TrimSpace(q.SearchTerm); term != "" {
		p := next("%" + escapeLike(term) + "%")
		clauses = append(clauses, "(owner_id ILIKE "+p+" OR id::text ILIKE "+p+" OR file_name ILIKE "+p+")")
	}
	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		doc                    models.Document
		docID                  uuid.UUID
		owner, docType, status string
		claimedBy              string
		decidedAt, expiresAt   sql.NullTime
		retiredAt              sql.NullTime
		supersededBy           uuid.NullUUID
	)
	if err := row.Scan(
		&docID, &owner, &docType, &status, &doc.FileRef, &doc.FileName, &doc.SubmittedAt,
		&decidedAt, &expiresAt, &doc.UpdatedAt, &doc.RejectionReason, &doc.ReviewNotes, &claimedBy,
		&doc.Version, &retiredAt, &supersededBy,
	); err != nil {
		return nil, err
	}
	doc.ID = id.DocumentID(docID)
	doc.OwnerID = id.OwnerID(owner)
	doc.Type = models.DocumentType(docType)
	doc.Status = models.VerificationStatus(status)
	doc.ClaimedBy = id.ReviewerID(claimedBy)
	doc.DecidedAt = nullTime(decidedAt)
	doc.ExpiresAt = nullTime(expiresAt)
	doc.RetiredAt = nullTime(retiredAt)
	if supersededBy.Valid {
		successor := id.DocumentID(supersededBy.UUID)
		doc.SupersededBy = &successor
	}
	return &doc, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullableID(docID *id.DocumentID) any {
	if docID == nil {
		return nil
	}
	return uuid.UUID(*docID)
}
