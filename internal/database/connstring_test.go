package database

import (
	"testing"

	"github.com/cybertec-postgresql/pgup/pkg/types"
)

func TestBuildConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.Config
		want string
	}{
		{
			name: "explicit connection string wins",
			cfg:  types.Config{ConnectionString: "postgres://a@b/c", PGHost: "ignored"},
			want: "postgres://a@b/c",
		},
		{
			name: "from fields",
			cfg:  types.Config{PGHost: "localhost", PGPort: 5432, PGUser: "app", PGDatabase: "shop"},
			want: "host=localhost port=5432 user=app dbname=shop",
		},
		{
			name: "quoted password",
			cfg:  types.Config{PGHost: "db", PGPassword: `it's a \secret`},
			want: `host=db password='it\'s a \\secret'`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildConnString(&tt.cfg); got != tt.want {
				t.Errorf("BuildConnString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskPassword(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			in:   "host=db user=app password=secret dbname=shop",
			want: "host=db user=app password=xxxxx dbname=shop",
		},
		{
			in:   "host=db password = 'it\\'s secret' dbname=shop",
			want: "host=db password = xxxxx dbname=shop",
		},
		{
			in:   "postgres://app:secret@db:5432/shop?sslmode=disable",
			want: "postgres://app:xxxxx@db:5432/shop?sslmode=disable",
		},
		{
			in:   "postgresql://app@db/shop?password=secret",
			want: "postgresql://app@db/shop?password=xxxxx",
		},
		{
			in:   "host=db user=app",
			want: "host=db user=app",
		},
	}
	for _, tt := range tests {
		if got := MaskPassword(tt.in); got != tt.want {
			t.Errorf("MaskPassword(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
