package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/gallery?sslmode=disable", "pgx5://u:p@db:5432/gallery?sslmode=disable"},
		{"postgresql://u:p@db/gallery", "pgx5://u:p@db/gallery"},
		{"pgx5://u:p@db/gallery", "pgx5://u:p@db/gallery"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, migrationURL(tt.in))
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_init.up.sql")
	assert.Contains(t, names, "000002_user_provisioning.up.sql")
	assert.Contains(t, names, "000002_user_provisioning.down.sql")
}
