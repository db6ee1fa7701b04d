package config

import (
	"fmt"
	"net"
	neturl "net/url"
	"sort"
	"strconv"
	"strings"
)

// DSNValue renders the connection string for the configured driver. An
// explicit dsn or url always wins.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.URL); v != "" {
		return v
	}

	switch c.Driver {
	case DriverPostgres:
		return c.postgresDSN()
	case DriverSQLite:
		return c.sqliteDSN()
	default:
		return c.mysqlDSN()
	}
}

func (c DatabaseRuntimeConfig) mysqlDSN() string {
	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}

	params := neturl.Values{}
	for key, value := range c.Params {
		params.Set(key, value)
	}
	if params.Get("charset") == "" {
		params.Set("charset", orDefault(c.Charset, defaultDBCharset))
	}
	if params.Get("parseTime") == "" {
		params.Set("parseTime", strconv.FormatBool(c.ParseTime))
	}
	if params.Get("loc") == "" {
		params.Set("loc", orDefault(c.Loc, defaultDBLoc))
	}

	auth := ""
	if c.User != "" || c.Password != "" {
		auth = c.User
		if c.Password != "" {
			auth += ":" + c.Password
		}
		auth += "@"
	}

	dsn := fmt.Sprintf("%stcp(%s)/%s", auth, net.JoinHostPort(orDefault(c.Host, defaultDBHost), strconv.Itoa(port)), orDefault(c.Name, defaultDBName))
	if query := params.Encode(); query != "" {
		dsn += "?" + query
	}
	return dsn
}

// postgresDSN renders the key=value form accepted by pgx.
func (c DatabaseRuntimeConfig) postgresDSN() string {
	port := c.Port
	if port == 0 {
		port = defaultPGPort
	}
	parts := []string{
		"host=" + orDefault(c.Host, defaultDBHost),
		"port=" + strconv.Itoa(port),
		"user=" + c.User,
		"dbname=" + orDefault(c.Name, defaultDBName),
		"sslmode=" + orDefault(c.SSLMode, defaultPGSSLMode),
	}
	if c.Password != "" {
		parts = append(parts, "password="+c.Password)
	}
	keys := make([]string, 0, len(c.Params))
	for key := range c.Params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, key+"="+c.Params[key])
	}
	return strings.Join(parts, " ")
}

func (c DatabaseRuntimeConfig) sqliteDSN() string {
	path := orDefault(c.Path, defaultSQLitePath)
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return ResolveRuntimePath(path, "")
}

func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}

	port := c.Port
	if port == 0 {
		port = defaultRedisPort
	}
	db := c.DB
	if db < 0 {
		db = defaultRedisDB
	}
	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}

	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(orDefault(c.Host, defaultRedisHost), strconv.Itoa(port)),
		Path:   "/" + strconv.Itoa(db),
	}
	switch {
	case c.Username != "" && c.Password != "":
		u.User = neturl.UserPassword(c.Username, c.Password)
	case c.Username != "":
		u.User = neturl.User(c.Username)
	case c.Password != "":
		u.User = neturl.UserPassword("", c.Password)
	}

	if len(c.Params) > 0 {
		query := neturl.Values{}
		for key, value := range c.Params {
			query.Set(key, value)
		}
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
