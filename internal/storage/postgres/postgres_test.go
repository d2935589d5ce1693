package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"rentcard_service/internal/models"
	"rentcard_service/internal/storage"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepo) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return mock, NewWithDB(mock)
}

func TestCompleteVerification(t *testing.T) {
	sub := models.VerificationSubmission{ReferenceID: 5, Rating: "excellent", Comments: "Great tenant"}

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "success",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT reference_id").
					WithArgs(tokenHash).
					WillReturnRows(pgxmock.NewRows([]string{"reference_id", "used"}).AddRow(int64(5), false))
				mock.ExpectExec("UPDATE tenant_references").
					WithArgs(int64(5), "excellent", "Great tenant").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec("UPDATE reference_verification_tokens").
					WithArgs(tokenHash).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "token already used",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT reference_id").
					WithArgs(tokenHash).
					WillReturnRows(pgxmock.NewRows([]string{"reference_id", "used"}).AddRow(int64(5), true))
				mock.ExpectRollback()
			},
			wantErr: storage.ErrAlreadyVerified,
		},
		{
			name: "reference verified through another token",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT reference_id").
					WithArgs(tokenHash).
					WillReturnRows(pgxmock.NewRows([]string{"reference_id", "used"}).AddRow(int64(5), false))
				mock.ExpectExec("UPDATE tenant_references").
					WithArgs(int64(5), "excellent", "Great tenant").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectRollback()
			},
			wantErr: storage.ErrAlreadyVerified,
		},
		{
			name: "token belongs to another reference",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT reference_id").
					WithArgs(tokenHash).
					WillReturnRows(pgxmock.NewRows([]string{"reference_id", "used"}).AddRow(int64(6), false))
				mock.ExpectRollback()
			},
			wantErr: storage.ErrTokenNotFound,
		},
		{
			name: "unknown token",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT reference_id").
					WithArgs(tokenHash).
					WillReturnRows(pgxmock.NewRows([]string{"reference_id", "used"}))
				mock.ExpectRollback()
			},
			wantErr: storage.ErrTokenNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMock(t)
			tt.setup(mock)

			err := repo.CompleteVerification(context.Background(), tokenHash, sub)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReferenceForVerification(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectQuery("FROM tenant_references r").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "tenant_id", "name", "relationship", "email", "is_verified", "full_name", "email",
		}).AddRow(int64(5), int64(1), "Jane Doe", "previous_landlord", "jane@example.com", false, "John Smith", "john@example.com"))

	ref, err := repo.ReferenceForVerification(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", ref.Name)
	assert.Equal(t, "John Smith", ref.TenantName)
	assert.Equal(t, "john@example.com", ref.TenantEmail)

	mock.ExpectQuery("FROM tenant_references r").
		WithArgs(int64(6)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err = repo.ReferenceForVerification(context.Background(), 6)
	assert.ErrorIs(t, err, storage.ErrReferenceNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepo_Delete(t *testing.T) {
	mock, repo := newMock(t)
	contacts := NewResourceRepo[models.RecipientContact](repo)

	mock.ExpectExec("DELETE FROM recipient_contacts").
		WithArgs(int64(7), int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, contacts.Delete(context.Background(), 3, 7))

	mock.ExpectExec("DELETE FROM recipient_contacts").
		WithArgs(int64(8), int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := contacts.Delete(context.Background(), 3, 8)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepo_List(t *testing.T) {
	mock, repo := newMock(t)
	templates := NewResourceRepo[models.CommunicationTemplate](repo)

	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM communication_templates WHERE landlord_id = \\$1").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "landlord_id", "name", "subject", "body", "category", "usage_count", "created_at", "updated_at",
		}).
			AddRow(int64(1), int64(3), "Welcome", "Hello", "Hi {{name}}", "general", 2, now, now).
			AddRow(int64(2), int64(3), "Reminder", "Rent", "Rent is due", "billing", 0, now, now))

	items, err := templates.List(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Welcome", items[0].Name)
	assert.Equal(t, 2, items[0].UsageCount)
	assert.Equal(t, int64(2), items[1].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepo_CreateConflict(t *testing.T) {
	mock, repo := newMock(t)
	refs := NewResourceRepo[models.TenantReference](repo)

	mock.ExpectQuery("INSERT INTO tenant_references \\(tenant_id, name, relationship, email, phone, notes\\)").
		WithArgs(int64(1), "Jane Doe", "employer", "jane@example.com", "555-0100", "").
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})

	_, err := refs.Create(context.Background(), 1, models.TenantReference{
		Name:         "Jane Doe",
		Relationship: "employer",
		Email:        "jane@example.com",
		Phone:        "555-0100",
	})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepo_IncrementUsageNotTracked(t *testing.T) {
	_, repo := newMock(t)
	logs := NewResourceRepo[models.CommunicationLog](repo)

	_, err := logs.IncrementUsage(context.Background(), 3, 1)
	assert.ErrorIs(t, err, ErrUsageNotTracked)
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// sql.Open does not connect; the provider only needs a handle to load sources.
	db, err := sql.Open("pgx", "postgres://rentcard@127.0.0.1:1/rentcard")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestMigrator_Sources(t *testing.T) {
	m, err := NewMigrator(newTestDB(t))
	require.NoError(t, err)

	sources := m.Sources()
	require.Len(t, sources, 5)

	for i, src := range sources {
		assert.Equal(t, int64(i+1), src.Version)
	}

	assert.Equal(t, "create_tenants", sources[0].Name)
	assert.Equal(t, "create_tenant_message_templates", sources[4].Name)
}

func TestMigrator_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("-- +goose Up\nCREATE TABLE a ();\n-- +goose Down\nDROP TABLE a;\n")},
		"001_b.sql": {Data: []byte("-- +goose Up\nCREATE TABLE b ();\n-- +goose Down\nDROP TABLE b;\n")},
	}

	_, err := newMigrator(newTestDB(t), fsys)
	assert.Error(t, err)
}

func TestMigrationName(t *testing.T) {
	assert.Equal(t, "create_tenants", migrationName("001_create_tenants.sql"))
	assert.Equal(t, "create_tokens", migrationName("migrations/003_create_tokens.sql"))
	assert.Equal(t, "init", migrationName("init.sql"))
}

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: codeForeignKeyViolation}), storage.ErrNotFound)

	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
}
