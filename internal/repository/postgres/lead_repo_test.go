package postgres

import (
	"context"
	"testing"
	"time"

	"crm-service/internal/domain/lead"
	xerrors "crm-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leadCols = []string{
	"id", "name", "email", "phone", "company", "message", "value", "source", "status",
	"follow_up_date", "assigned_to", "created_by", "converted_at", "created_at", "updated_at",
}

func sampleLeadRow(rows *pgxmock.Rows, id string, now time.Time) *pgxmock.Rows {
	return rows.AddRow(
		id, "Ada Lovelace", "ada@example.com", "", "", "", float64(0),
		lead.SourceWebsite, lead.StatusNew, (*time.Time)(nil), (*string)(nil), (*string)(nil),
		(*time.Time)(nil), now, now,
	)
}

func TestFindByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM leads WHERE id = \\$1").
		WithArgs("01ARZ3NDEKTSV4RRFFQ69G5FAV").
		WillReturnRows(sampleLeadRow(pgxmock.NewRows(leadCols), "01ARZ3NDEKTSV4RRFFQ69G5FAV", now))

	l, err := repo.FindByID(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", l.Name)
	assert.Equal(t, lead.StatusNew, l.Status)
	assert.Nil(t, l.ConvertedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM leads WHERE id = \\$1").
		WithArgs("01ARZ3NDEKTSV4RRFFQ69G5FAV").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.FindByID(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListComposesFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)
	now := time.Now().UTC()
	start := now.Add(-24 * time.Hour)

	q := lead.ListQuery{
		Page:      2,
		Limit:     5,
		Status:    "new",
		Source:    "website",
		Search:    "acme",
		StartDate: &start,
		EndDate:   &now,
		SortBy:    "value",
		SortOrder: "asc",
	}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM leads WHERE status = \\$1 AND source = \\$2 AND \\(name ILIKE \\$3 OR email ILIKE \\$3 OR company ILIKE \\$3\\) AND created_at >= \\$4 AND created_at <= \\$5").
		WithArgs("new", "website", "%acme%", start, now).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	mock.ExpectQuery("ORDER BY value ASC\\s+LIMIT \\$6 OFFSET \\$7").
		WithArgs("new", "website", "%acme%", start, now, 5, 5).
		WillReturnRows(sampleLeadRow(pgxmock.NewRows(leadCols), "01ARZ3NDEKTSV4RRFFQ69G5FAV", now))

	leads, total, err := repo.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	require.Len(t, leads, 1)
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", leads[0].ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUnknownSortFallsBackToCreatedAt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)

	q := lead.ListQuery{Page: 1, Limit: 10, SortBy: "id; DROP TABLE leads", SortOrder: "desc"}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM leads").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

	mock.ExpectQuery("ORDER BY created_at DESC\\s+LIMIT \\$1 OFFSET \\$2").
		WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows(leadCols))

	leads, total, err := repo.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, leads)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAcceptsCamelCaseSortKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)

	q := lead.ListQuery{Page: 1, Limit: 10, SortBy: "createdAt", SortOrder: "asc"}

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM leads").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

	mock.ExpectQuery("ORDER BY created_at ASC").
		WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows(leadCols))

	_, _, err = repo.List(context.Background(), q)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)
	now := time.Now().UTC()

	l := &lead.Lead{
		ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", Name: "Ada", Email: "ada@example.com",
		Source: lead.SourceWebsite, Status: lead.StatusNew, UpdatedAt: now,
	}

	mock.ExpectExec("UPDATE leads").
		WithArgs(
			l.Name, l.Email, l.Phone, l.Company, l.Message,
			l.Value, l.Source, l.Status, l.FollowUpDate,
			l.AssignedToID, l.ConvertedAt, l.UpdatedAt, l.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Update(context.Background(), l)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRemovesNotesInTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)
	id := "01ARZ3NDEKTSV4RRFFQ69G5FAV"

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM lead_notes WHERE lead_id = \\$1").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec("DELETE FROM leads WHERE id = \\$1").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingLeadRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)
	id := "01ARZ3NDEKTSV4RRFFQ69G5FAV"

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM lead_notes WHERE lead_id = \\$1").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM leads WHERE id = \\$1").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), id), xerrors.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertNoteTouchesLead(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)
	leadID := "01ARZ3NDEKTSV4RRFFQ69G5FAV"
	now := time.Now().UTC()

	n := &lead.Note{
		ID:          "01BX5ZZKBKACTAV9WEVGEMMVRZ",
		Content:     "called back",
		CreatedByID: "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		CreatedAt:   now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO lead_notes").
		WithArgs(n.ID, leadID, n.Content, n.CreatedByID, n.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE leads SET updated_at = \\$1 WHERE id = \\$2").
		WithArgs(n.CreatedAt, leadID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.InsertNote(context.Background(), leadID, n))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNoteMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM lead_notes WHERE id = \\$1 AND lead_id = \\$2").
		WithArgs("01BX5ZZKBKACTAV9WEVGEMMVRZ", "01ARZ3NDEKTSV4RRFFQ69G5FAV").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err = repo.DeleteNote(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV", "01BX5ZZKBKACTAV9WEVGEMMVRZ", now)
	assert.ErrorIs(t, err, xerrors.ErrNoteNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListNotesNewestFirst(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)
	leadID := "01ARZ3NDEKTSV4RRFFQ69G5FAV"
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "content", "created_by", "created_at"}).
		AddRow("n2", "newer", "u1", now).
		AddRow("n1", "older", "u1", now.Add(-time.Hour))

	mock.ExpectQuery("ORDER BY created_at DESC, id DESC").
		WithArgs(leadID).
		WillReturnRows(rows)

	notes, err := repo.ListNotes(context.Background(), leadID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "newer", notes[0].Content)
	assert.Equal(t, "older", notes[1].Content)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLeadRepository(mock)

	rows := pgxmock.NewRows([]string{"status", "count"}).
		AddRow(lead.StatusNew, int64(12)).
		AddRow(lead.StatusConverted, int64(4))

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM leads GROUP BY status").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), counts[lead.StatusNew])
	assert.Equal(t, int64(4), counts[lead.StatusConverted])
	assert.Len(t, counts, 2)

	require.NoError(t, mock.ExpectationsWereMet())
}
