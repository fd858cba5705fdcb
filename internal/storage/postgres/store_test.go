package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/fact-poller/internal/fact"
)

type fixedIDs struct {
	id  string
	err error
}

func (f fixedIDs) NewID() (string, error) { return f.id, f.err }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestSaveInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Unix(1700000000, 0).UTC()
	store, err := NewWithPool(mock, "facts", fixedIDs{id: "uuid-v7"}, fixedClock{t: now})
	require.NoError(t, err)
	assert.Equal(t, "postgres", store.Name())

	f := fact.Fact{ID: "591f98803b90f7150a19c229", Text: "Cats purr at 26 Hz."}
	payload, err := fact.Encode(f)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO facts").
		WithArgs("uuid-v7", f.ID, payload, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	key, err := store.Save(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "uuid-v7", key)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSurfacesInsertError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "", fixedIDs{id: "k"}, fixedClock{t: time.Now()})
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO facts").WillReturnError(errors.New("disk full"))

	_, err = store.Save(context.Background(), fact.Fact{ID: "x"})
	require.ErrorContains(t, err, "insert fact: disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveKeyGenerationFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "facts", fixedIDs{err: errors.New("entropy")}, fixedClock{})
	require.NoError(t, err)

	_, err = store.Save(context.Background(), fact.Fact{})
	require.ErrorContains(t, err, "generate key")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaCreatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "cat_facts", fixedIDs{id: "k"}, fixedClock{})
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cat_facts").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolValidation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(nil, "facts", fixedIDs{}, fixedClock{})
	require.Error(t, err)

	_, err = NewWithPool(mock, "facts; DROP TABLE x", fixedIDs{}, fixedClock{})
	require.ErrorContains(t, err, "invalid table name")

	_, err = NewWithPool(mock, "facts", nil, fixedClock{})
	require.Error(t, err)
}

func TestOpenRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{}, fixedIDs{}, fixedClock{})
	require.ErrorContains(t, err, "dsn is required")
}
