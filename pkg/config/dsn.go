package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ParsedDatabaseURL holds the parsed components of a database connection URL.
type ParsedDatabaseURL struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Options  map[string]string
}

// ParseDatabaseURL parses a PostgreSQL connection URL into its components.
// Supports postgres:// and postgresql:// schemes.
func ParseDatabaseURL(rawURL string) (*ParsedDatabaseURL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	rawURL = strings.Replace(rawURL, "postgresql://", "postgres://", 1)

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if u.Scheme != "postgres" {
		return nil, fmt.Errorf("invalid database URL scheme: %s (expected postgres or postgresql)", u.Scheme)
	}

	result := &ParsedDatabaseURL{
		Host:    u.Hostname(),
		Port:    5432,
		SSLMode: "disable",
		Options: make(map[string]string),
	}

	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port in database URL: %w", err)
		}
		result.Port = port
	}

	if u.User != nil {
		result.User = u.User.Username()
		result.Password, _ = u.User.Password()
	}

	result.Database = strings.TrimPrefix(u.Path, "/")

	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "sslmode" {
			result.SSLMode = values[0]
			continue
		}
		result.Options[key] = values[0]
	}

	return result, nil
}

// ToDSN converts the parsed URL to a libpq key/value string. Extra options are
// appended in key order so the output is stable.
func (p *ParsedDatabaseURL) ToDSN() string {
	parts := []string{
		"host=" + dsnValue(p.Host),
		"port=" + strconv.Itoa(p.Port),
		"user=" + dsnValue(p.User),
		"password=" + dsnValue(p.Password),
		"dbname=" + dsnValue(p.Database),
		"sslmode=" + dsnValue(p.SSLMode),
	}

	keys := make([]string, 0, len(p.Options))
	for k := range p.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+dsnValue(p.Options[k]))
	}

	return strings.Join(parts, " ")
}

// ToURL converts the parsed components back to a URL string.
func (p *ParsedDatabaseURL) ToURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   "/" + p.Database,
	}
	q := url.Values{}
	q.Set("sslmode", p.SSLMode)
	for k, v := range p.Options {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// dsnValue quotes values containing spaces or quotes as libpq expects.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
