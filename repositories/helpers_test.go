package repositories

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestForUpdate(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"postgres", " FOR UPDATE"},
		{"sqlite3", ""},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			// sqlx.NewDb only records the driver name; no connection is opened.
			assert.Equal(t, tt.want, forUpdate(sqlx.NewDb(nil, tt.driver)))
		})
	}
}
