package connector

import (
	"strings"

	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"github.com/hashicorp/go-secure-stdlib/strutil"
	"github.com/xo/dburl"
)

// DefaultDriver is used when the configuration names none.
const DefaultDriver = "sqlsrv"

// CaseMode folds column and result names.
type CaseMode int

const (
	CaseNatural CaseMode = iota
	CaseLower
	CaseUpper
)

// ParseCaseMode recognizes natural, lower and upper.
func ParseCaseMode(s string) (CaseMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "natural":
		return CaseNatural, true
	case "lower":
		return CaseLower, true
	case "upper":
		return CaseUpper, true
	}
	return CaseNatural, false
}

func (c CaseMode) String() string {
	return [...]string{"natural", "lower", "upper"}[c]
}

// Fold applies the mode to s.
func (c CaseMode) Fold(s string) string {
	switch c {
	case CaseLower:
		return strings.ToLower(s)
	case CaseUpper:
		return strings.ToUpper(s)
	}
	return s
}

// Descriptor is a resolved connection configuration. Empty strings and nil
// pointers are unset and never reach the native connection string, so the
// driver keeps its own defaults for them.
type Descriptor struct {
	Driver   string
	User     string
	Password string
	Server   string
	Port     string
	Database string
	// Options is appended verbatim to the connection string.
	Options string

	SSLMode     string
	SSLCert     string
	SSLKey      string
	SSLRootCert string

	// Timeout is the login timeout in seconds.
	Timeout          *int
	PrefetchSize     *int
	Case             *CaseMode
	StringifyFetches *bool
	AutoCommit       *bool
	Persistent       *bool
	ConnectRetries   *int

	// ConnectSQL statements run after every successful connect.
	ConnectSQL []string

	url *dburl.URL
}

// URL returns the parsed connection URL when the configuration used one.
func (d *Descriptor) URL() *dburl.URL {
	return d.url
}

// Resolve builds a Descriptor from a configuration section. Overrides take
// precedence over the section. Both are read with case-insensitive keys.
func Resolve(section, overrides map[string]string) (*Descriptor, error) {
	cfg := make(map[string]string, len(section)+len(overrides))
	for k, v := range section {
		cfg[strings.ToLower(k)] = v
	}
	for k, v := range overrides {
		cfg[strings.ToLower(k)] = v
	}
	get := func(key string) string {
		return cfg[key]
	}

	d := &Descriptor{
		Driver:      strings.TrimSuffix(get("driver"), ":"),
		User:        get("user"),
		Password:    get("password"),
		Server:      get("server"),
		Port:        get("port"),
		Database:    get("database"),
		Options:     get("options"),
		SSLMode:     get("sslmode"),
		SSLCert:     get("sslcert"),
		SSLKey:      get("sslkey"),
		SSLRootCert: get("sslrootcert"),
	}

	rawURL := get("url")
	if rawURL == "" && strings.Contains(d.Driver, "://") {
		rawURL, d.Driver = d.Driver, ""
	}
	if rawURL != "" {
		u, err := dburl.Parse(rawURL)
		if err != nil {
			return nil, newError(ErrConfiguration, "resolve", "malformed url", err)
		}
		d.url = u
		if d.Driver == "" {
			d.Driver = u.Driver
		}
	}
	if d.Driver == "" {
		d.Driver = DefaultDriver
	}

	var err error
	timeout := get("logintimeout")
	if timeout == "" {
		timeout = get("connecttimeout")
	}
	if d.Timeout, err = optInt("logintimeout", timeout); err != nil {
		return nil, err
	}
	if d.PrefetchSize, err = optInt("prefetchsize", get("prefetchsize")); err != nil {
		return nil, err
	}
	if d.ConnectRetries, err = optInt("connectretries", get("connectretries")); err != nil {
		return nil, err
	}
	if d.StringifyFetches, err = optBool("stringifyfetches", get("stringifyfetches")); err != nil {
		return nil, err
	}
	if d.AutoCommit, err = optBool("autocommit", get("autocommit")); err != nil {
		return nil, err
	}
	if d.Persistent, err = optBool("persistent", get("persistent")); err != nil {
		return nil, err
	}
	// an unknown case mode keeps the driver default
	if c, ok := ParseCaseMode(get("case")); ok {
		d.Case = &c
	}

	var stmts []string
	for _, s := range strings.Split(get("connectsql"), ";") {
		stmts = append(stmts, strings.TrimSpace(s))
	}
	d.ConnectSQL = strutil.RemoveEmpty(stmts)
	return d, nil
}

// ConnectString renders the driver followed by the set server, port,
// database and raw option fragments. Credentials are never part of it.
func (d *Descriptor) ConnectString() string {
	if d.url != nil {
		return d.Driver + ":" + d.url.Redacted()
	}
	return d.Driver + ":" + strings.Join(d.fragments(), ";")
}

func (d *Descriptor) fragments() []string {
	var parts []string
	for _, kv := range [][2]string{
		{"server", d.Server},
		{"port", d.Port},
		{"database", d.Database},
	} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	if d.Options != "" {
		parts = append(parts, d.Options)
	}
	return parts
}

// caseMode is the effective folding mode for result columns.
func (d *Descriptor) caseMode() CaseMode {
	if d.Case == nil {
		return CaseNatural
	}
	return *d.Case
}

func optInt(key, v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	i, err := parseutil.ParseInt(v)
	if err != nil {
		return nil, newError(ErrConfiguration, "resolve", key, err)
	}
	n := int(i)
	return &n, nil
}

func optBool(key, v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := parseutil.ParseBool(v)
	if err != nil {
		return nil, newError(ErrConfiguration, "resolve", key, err)
	}
	return &b, nil
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
