package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DSNFormatting(t *testing.T) {
	cfg := Config{Host: "db.internal", Port: 5432, User: "notecore", Password: "secret", Database: "notecore", SSLMode: "disable"}
	got := cfg.dsn()
	assert.Contains(t, got, "host=db.internal")
	assert.Contains(t, got, "port=5432")
	assert.Contains(t, got, "dbname=notecore")
	assert.Contains(t, got, "sslmode=disable")
}
