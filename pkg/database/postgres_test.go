package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/nade-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "nade", Password: "pw", Name: "nade", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=nade password=pw dbname=nade sslmode=disable", dsn)
}
