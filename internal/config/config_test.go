package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "caf",
		Password: "secret",
		Name:     "caf_api",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=caf password=secret dbname=caf_api sslmode=require",
		cfg.DSN())
}
