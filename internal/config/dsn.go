package config

import (
	"fmt"
	"net"
	neturl "net/url"
	"sort"
	"strconv"
	"strings"
)

// DSNValue returns the connection string for the configured driver. An
// explicit dsn always wins over the discrete fields.
func (c DatabaseConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}
	switch c.Driver {
	case DriverMySQL:
		return c.mysqlDSN()
	case DriverSQLite:
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = defaultDBName
		}
		if name == ":memory:" || strings.HasSuffix(name, ".db") {
			return name
		}
		return name + ".db"
	default:
		return c.postgresDSN()
	}
}

func (c DatabaseConfig) postgresDSN() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	sslmode := strings.TrimSpace(c.SSLMode)
	if sslmode == "" {
		sslmode = "disable"
	}
	parts := []string{
		"host=" + orDefault(c.Host, defaultDBHost),
		"port=" + strconv.Itoa(port),
		"user=" + orDefault(c.User, "postgres"),
		"dbname=" + orDefault(c.Name, defaultDBName),
		"sslmode=" + sslmode,
	}
	if c.Password != "" {
		parts = append(parts, "password="+c.Password)
	}
	for _, key := range sortedKeys(c.Params) {
		parts = append(parts, key+"="+strings.TrimSpace(c.Params[key]))
	}
	return strings.Join(parts, " ")
}

func (c DatabaseConfig) mysqlDSN() string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	params := neturl.Values{}
	for key, value := range c.Params {
		if k, v := strings.TrimSpace(key), strings.TrimSpace(value); k != "" && v != "" {
			params.Set(k, v)
		}
	}
	if params.Get("charset") == "" {
		params.Set("charset", "utf8mb4")
	}
	if params.Get("parseTime") == "" {
		params.Set("parseTime", "True")
	}
	if params.Get("loc") == "" {
		params.Set("loc", "UTC")
	}

	auth := orDefault(c.User, "root")
	if c.Password != "" {
		auth += ":" + c.Password
	}
	host := net.JoinHostPort(orDefault(c.Host, defaultDBHost), strconv.Itoa(port))
	return fmt.Sprintf("%s@tcp(%s)/%s?%s", auth, host, orDefault(c.Name, defaultDBName), params.Encode())
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
