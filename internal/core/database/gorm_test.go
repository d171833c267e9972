package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name, in, user, pass, want string
	}{
		{"driver syntax untouched", "root:pw@tcp(db:3306)/shop?parseTime=true", "", "", "root:pw@tcp(db:3306)/shop?parseTime=true"},
		{"url with defaults", "mysql://root:pw@db:3306/shop", "", "", "root:pw@tcp(db:3306)/shop?charset=utf8mb4&parseTime=true"},
		{"jdbc params", "jdbc:mysql://db:3306/shop?useSSL=false&characterEncoding=utf8&useUnicode=true", "app", "secret", "app:secret@tcp(db:3306)/shop?charset=utf8&parseTime=true&tls=false"},
		{"override user", "mysql://root@db/shop?parseTime=false", "svc", "", "svc@tcp(db)/shop?charset=utf8mb4&parseTime=false"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeMySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(db)/x", maskDSN("root:pw@tcp(db)/x"))
	assert.Equal(t, "tcp(db)/x", maskDSN("tcp(db)/x"))
}

func TestNewGorm_Sqlite(t *testing.T) {
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "t.db"), LogLevel: "silent"})
	require.NoError(t, err)
	defer Close(db)

	var n int
	require.NoError(t, db.Raw("SELECT 1").Scan(&n).Error)
	assert.Equal(t, 1, n)
}

func TestNewGorm_UnknownDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
