package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		Host:     "db",
		Port:     5433,
		User:     "certs",
		Password: "secret",
		Name:     "bondcurve",
	}
	assert.Equal(t, "host=db port=5433 user=certs password=secret dbname=bondcurve sslmode=disable", cfg.DSN())

	cfg.ConnString = "postgres://certs:secret@db:5433/bondcurve"
	assert.Equal(t, "postgres://certs:secret@db:5433/bondcurve", cfg.DSN())
}

func TestSchema_Embedded(t *testing.T) {
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS certificates")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS quotes")
}
