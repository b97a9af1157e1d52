package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAccessBlocked(t *testing.T) {
	assert.True(t, IsAccessBlocked(ErrAccessBlocked))
	assert.True(t, IsAccessBlocked(errors.New("pq: permission denied for table role_observations")))
	assert.True(t, IsAccessBlocked(errors.New("upstream: READ SUSPENDED during reload")))
	assert.False(t, IsAccessBlocked(errors.New("pq: connection refused")))
	assert.False(t, IsAccessBlocked(nil))
}

func TestIsSchemaMismatch(t *testing.T) {
	assert.True(t, IsSchemaMismatch(errors.New(`pq: undefined column "name_tsv"`)))
	assert.True(t, IsSchemaMismatch(errors.New("SQL logic error: no such module: fts5")))
	assert.True(t, IsSchemaMismatch(errors.New("fts5: syntax error near \"*\"")))
	assert.False(t, IsSchemaMismatch(errors.New("pq: permission denied")))
	assert.False(t, IsSchemaMismatch(nil))
}

func TestNegotiateIndexedWins(t *testing.T) {
	rows, strategy, err := Negotiate(
		func() ([]string, error) { return []string{"a"}, nil },
		func() ([]string, error) { t.Fatal("fallback must not run"); return nil, nil },
	)
	require.NoError(t, err)
	assert.Equal(t, StrategyIndexed, strategy)
	assert.Equal(t, []string{"a"}, rows)
}

func TestNegotiateFallsBackOnSchemaError(t *testing.T) {
	rows, strategy, err := Negotiate(
		func() ([]string, error) { return nil, errors.New("no such table: identities_fts") },
		func() ([]string, error) { return []string{"b"}, nil },
	)
	require.NoError(t, err)
	assert.Equal(t, StrategyFallback, strategy)
	assert.Equal(t, []string{"b"}, rows)
}

func TestNegotiateDoesNotFallBackOnOtherErrors(t *testing.T) {
	boom := errors.New("connection reset by peer")
	_, strategy, err := Negotiate(
		func() (int, error) { return 0, boom },
		func() (int, error) { t.Fatal("fallback must not run"); return 0, nil },
	)
	assert.Equal(t, StrategyFailed, strategy)
	assert.ErrorIs(t, err, boom)
}

func TestNegotiateBothShapesFail(t *testing.T) {
	_, strategy, err := Negotiate(
		func() (int, error) { return 0, errors.New("undefined column name_tsv") },
		func() (int, error) { return 0, errors.New("connection reset") },
	)
	assert.Equal(t, StrategyFailed, strategy)
	assert.Error(t, err)
}
