package config

import (
	"fmt"
	"strings"
)

// DSN returns the sqlite file path, or a libpq keyword/value string for
// postgres with empty settings omitted.
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.SQLitePath
	}

	var parts []string
	for _, kv := range [][2]string{
		{"host", d.Host},
		{"port", d.Port},
		{"user", d.User},
		{"password", d.Password},
		{"dbname", d.Database},
		{"sslmode", d.SSLMode},
	} {
		if kv[1] != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", kv[0], quoteDSN(kv[1])))
		}
	}
	return strings.Join(parts, " ")
}

// quoteDSN quotes values containing spaces or quotes per libpq rules.
func quoteDSN(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
