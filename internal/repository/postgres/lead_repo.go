// internal/repository/postgres/lead_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm-service/internal/domain/lead"
	xerrors "crm-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type LeadRepository struct {
	db DBTX
}

func NewLeadRepository(db DBTX) *LeadRepository {
	return &LeadRepository{db: db}
}

const leadColumns = `id, name, email, phone, company, message, value, source, status,
	       follow_up_date, assigned_to, created_by, converted_at, created_at, updated_at`

// sortColumns maps client-supplied sort keys onto real columns. Anything
// outside this map falls back to created_at; the client's camelCase spelling
// of the timestamp fields is accepted as well.
var sortColumns = map[string]string{
	"name":           "name",
	"email":          "email",
	"company":        "company",
	"status":         "status",
	"source":         "source",
	"value":          "value",
	"created_at":     "created_at",
	"createdAt":      "created_at",
	"updated_at":     "updated_at",
	"updatedAt":      "updated_at",
	"follow_up_date": "follow_up_date",
	"followUpDate":   "follow_up_date",
}

func scanLead(row pgx.Row, l *lead.Lead) error {
	return row.Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Company, &l.Message,
		&l.Value, &l.Source, &l.Status, &l.FollowUpDate,
		&l.AssignedToID, &l.CreatedByID, &l.ConvertedAt,
		&l.CreatedAt, &l.UpdatedAt,
	)
}

// Insert persists a new lead. The caller assigns the identifier and the
// lifecycle timestamps.
func (r *LeadRepository) Insert(ctx context.Context, l *lead.Lead) error {
	query := `
		INSERT INTO leads (
			id, name, email, phone, company, message, value, source, status,
			follow_up_date, assigned_to, created_by, converted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(
		ctx, query,
		l.ID, l.Name, l.Email, l.Phone, l.Company, l.Message, l.Value, l.Source, l.Status,
		l.FollowUpDate, l.AssignedToID, l.CreatedByID, l.ConvertedAt, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	return nil
}

// FindByID retrieves a lead without its notes.
func (r *LeadRepository) FindByID(ctx context.Context, id string) (*lead.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1`, leadColumns)

	var l lead.Lead
	err := scanLead(r.db.QueryRow(ctx, query, id), &l)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}

	return &l, nil
}

// List retrieves leads matching the query, AND-composing every supplied
// filter, plus the total match count independent of the requested page.
// Status and source values are passed through verbatim: an unrecognized
// value matches zero rows rather than erroring.
func (r *LeadRepository) List(ctx context.Context, q lead.ListQuery) ([]lead.Lead, int64, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if q.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, q.Status)
		argPos++
	}

	if q.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", argPos))
		args = append(args, q.Source)
		argPos++
	}

	if q.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)",
			argPos, argPos, argPos,
		))
		args = append(args, "%"+q.Search+"%")
		argPos++
	}

	if q.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *q.StartDate)
		argPos++
	}

	if q.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *q.EndDate)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total matches
	countQuery := strings.TrimSpace(fmt.Sprintf("SELECT COUNT(*) FROM leads %s", whereClause))
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	sortBy, ok := sortColumns[q.SortBy]
	if !ok {
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if q.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	offset := (q.Page - 1) * q.Limit

	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, sortBy, sortOrder, argPos, argPos+1)

	args = append(args, q.Limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []lead.Lead{}
	for rows.Next() {
		var l lead.Lead
		if err := scanLead(rows, &l); err != nil {
			return nil, 0, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read leads: %w", err)
	}

	return leads, total, nil
}

// Update writes the full mutable state of a lead, including converted_at.
// created_at is never touched.
func (r *LeadRepository) Update(ctx context.Context, l *lead.Lead) error {
	query := `
		UPDATE leads
		SET name = $1, email = $2, phone = $3, company = $4, message = $5,
		    value = $6, source = $7, status = $8, follow_up_date = $9,
		    assigned_to = $10, converted_at = $11, updated_at = $12
		WHERE id = $13
	`

	result, err := r.db.Exec(
		ctx, query,
		l.Name, l.Email, l.Phone, l.Company, l.Message,
		l.Value, l.Source, l.Status, l.FollowUpDate,
		l.AssignedToID, l.ConvertedAt, l.UpdatedAt, l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// Delete removes a lead and its notes in one transaction.
func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM lead_notes WHERE lead_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete lead notes: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	return nil
}

// InsertNote adds a note and refreshes the owning lead's updated_at in the
// same transaction.
func (r *LeadRepository) InsertNote(ctx context.Context, leadID string, n *lead.Note) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO lead_notes (id, lead_id, content, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, query, n.ID, leadID, n.Content, n.CreatedByID, n.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE leads SET updated_at = $1 WHERE id = $2`, n.CreatedAt, leadID); err != nil {
		return fmt.Errorf("failed to touch lead: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit note insert: %w", err)
	}

	return nil
}

// ListNotes returns a lead's notes newest-first.
func (r *LeadRepository) ListNotes(ctx context.Context, leadID string) ([]lead.Note, error) {
	query := `
		SELECT id, content, created_by, created_at
		FROM lead_notes
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []lead.Note{}
	for rows.Next() {
		var n lead.Note
		if err := rows.Scan(&n.ID, &n.Content, &n.CreatedByID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}

	return notes, nil
}

// DeleteNote removes a single note and refreshes the lead's updated_at.
// A note id that does not belong to the lead leaves everything untouched.
func (r *LeadRepository) DeleteNote(ctx context.Context, leadID, noteID string, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `DELETE FROM lead_notes WHERE id = $1 AND lead_id = $2`, noteID, leadID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNoteNotFound
	}

	if _, err := tx.Exec(ctx, `UPDATE leads SET updated_at = $1 WHERE id = $2`, now, leadID); err != nil {
		return fmt.Errorf("failed to touch lead: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit note delete: %w", err)
	}

	return nil
}

// Count returns the number of leads in the whole collection.
func (r *LeadRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return total, nil
}

// CountCreatedSince returns the number of leads created at or after since.
func (r *LeadRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE created_at >= $1`, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent leads: %w", err)
	}
	return total, nil
}

// CountByStatus groups the whole collection by status. Statuses with no
// leads do not appear in the result.
func (r *LeadRepository) CountByStatus(ctx context.Context) (map[lead.Status]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	defer rows.Close()

	counts := map[lead.Status]int64{}
	for rows.Next() {
		var status lead.Status
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status counts: %w", err)
	}

	return counts, nil
}

// CountBySource groups the whole collection by source, same absence rule as
// CountByStatus.
func (r *LeadRepository) CountBySource(ctx context.Context) (map[lead.Source]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT source, COUNT(*) FROM leads GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by source: %w", err)
	}
	defer rows.Close()

	counts := map[lead.Source]int64{}
	for rows.Next() {
		var source lead.Source
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		counts[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source counts: %w", err)
	}

	return counts, nil
}
