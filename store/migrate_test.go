package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecIdempotentTreatsDuplicateColumnAsNoOp(t *testing.T) {
	s := openTestStore(t)

	err := execIdempotent(s.db, 1, `ALTER TABLE trades ADD COLUMN filing_url TEXT`)
	assert.NoError(t, err)
}

func TestExecIdempotentTreatsTableExistsAsNoOp(t *testing.T) {
	s := openTestStore(t)

	err := execIdempotent(s.db, 1, `CREATE TABLE trades (id INTEGER PRIMARY KEY)`)
	assert.NoError(t, err)
}

func TestExecIdempotentSurfacesOtherErrors(t *testing.T) {
	s := openTestStore(t)

	err := execIdempotent(s.db, 1, `INSERT INTO trades (id) VALUES (1), (1)`)
	require.Error(t, err)
	var migErr *MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, 1, migErr.Version)
}

func TestBaseSchemaCreatesAllTables(t *testing.T) {
	s := openTestStore(t)

	tables := []string{
		"politicians", "politician_committees", "issuers", "issuer_eod_prices",
		"issuer_performance", "trades", "trade_committees", "trade_labels",
		"donations", "committee_politicians", "employer_mappings", "positions",
	}
	for _, tbl := range tables {
		var name string
		err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, tbl).Scan(&name)
		require.NoErrorf(t, err, "table %s should exist", tbl)
		assert.Equal(t, tbl, name)
	}
}
