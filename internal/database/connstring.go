package database

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cybertec-postgresql/pgup/pkg/types"
)

// BuildConnString returns cfg.ConnectionString when set, otherwise a
// keyword/value string assembled from the PG* fields.
func BuildConnString(cfg *types.Config) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}

	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+quoteValue(value))
		}
	}
	add("host", cfg.PGHost)
	if cfg.PGPort > 0 {
		add("port", fmt.Sprint(cfg.PGPort))
	}
	add("user", cfg.PGUser)
	add("password", cfg.PGPassword)
	add("dbname", cfg.PGDatabase)
	return strings.Join(parts, " ")
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

var passwordPattern = regexp.MustCompile(`(?i)(password\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`)

// MaskPassword hides the password of a URI or keyword/value connection string
func MaskPassword(connString string) string {
	if strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://") {
		u, err := url.Parse(connString)
		if err != nil {
			return "<invalid connection string>"
		}
		if q := u.Query(); q.Has("password") {
			q.Set("password", "xxxxx")
			u.RawQuery = q.Encode()
		}
		return u.Redacted()
	}
	return passwordPattern.ReplaceAllString(connString, "${1}xxxxx")
}
