// Package policy loads the board configuration and enforces who may write back.
package policy

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceXLSX   = "xlsx"
	SourceGoogle = "google"
)

// ErrActorNotAllowed is returned by ValidateActor for a rejected email.
var ErrActorNotAllowed = errors.New("actor not allowed")

// GlobalStateDir returns the default global state directory (~/.config/okrboard).
func GlobalStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "okrboard")
}

// SourceConfig selects and addresses the spreadsheet holding the team tabs.
type SourceConfig struct {
	Kind            string `yaml:"kind"`             // "xlsx" (default) or "google"
	Workbook        string `yaml:"workbook"`         // xlsx: path to the workbook
	SpreadsheetID   string `yaml:"spreadsheet_id"`   // google: spreadsheet ID
	CredentialsFile string `yaml:"credentials_file"` // google: service account JSON
	ReadRange       string `yaml:"read_range"`       // per-tab range, must start at A1 (default A1:H50)
	ValueColumn     string `yaml:"value_column"`     // column holding the current value (default D)
	AuditTab        string `yaml:"audit_tab"`        // optional tab mirroring the audit log
}

// AuthConfig gates write-back by actor email.
type AuthConfig struct {
	// AllowedDomains lists email domains allowed to write, e.g. ["grougp.com.br"].
	// Empty means any well-formed email is accepted.
	AllowedDomains []string `yaml:"allowed_domains"`
}

// Config holds the board configuration.
type Config struct {
	Title        string       `yaml:"title"`
	BaseDir      string       `yaml:"base_dir"` // relative paths resolve here (default: config file dir)
	Teams        []string     `yaml:"teams"`
	Source       SourceConfig `yaml:"source"`
	Auth         AuthConfig   `yaml:"auth"`
	AuditDB      string       `yaml:"audit_db"`
	LogFile      string       `yaml:"log_file"`
	HTTPPort     int          `yaml:"http_port"`
	EnabledTools []string     `yaml:"enabled_tools"`

	WatchIntervalSeconds int `yaml:"watch_interval_seconds"`
	OverviewConcurrency  int `yaml:"overview_concurrency"`
}

// DefaultTeams are the team tabs of the GROU OKR spreadsheet.
var DefaultTeams = []string{"Marketing", "Comercial", "Trainers", "SDR", "ADM", "CS"}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Title: "Dashboard OKRs",
		Teams: append([]string(nil), DefaultTeams...),
		Source: SourceConfig{
			Kind:        SourceXLSX,
			ReadRange:   "A1:H50",
			ValueColumn: "D",
		},
		HTTPPort:             8080,
		EnabledTools:         []string{"*"},
		WatchIntervalSeconds: 10,
		OverviewConcurrency:  4,
	}
}

// LoadConfig loads configuration from a YAML file on top of DefaultConfig.
// Relative paths in the file resolve against the file's directory unless
// base_dir is set.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.BaseDir == "" {
		if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
			cfg.BaseDir = abs
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

var (
	readRangePattern = regexp.MustCompile(`^A1:[A-Z]+[1-9][0-9]*$`)
	columnPattern    = regexp.MustCompile(`^[A-Z]+$`)
)

// Validate checks the fields LoadConfig cannot default.
func (c *Config) Validate() error {
	if len(c.Teams) == 0 {
		return errors.New("teams: at least one team is required")
	}
	seen := make(map[string]bool, len(c.Teams))
	for _, t := range c.Teams {
		if strings.TrimSpace(t) == "" {
			return errors.New("teams: empty team name")
		}
		key := strings.ToLower(t)
		if seen[key] {
			return fmt.Errorf("teams: duplicate team %q", t)
		}
		seen[key] = true
	}

	switch c.Source.Kind {
	case SourceXLSX:
		if c.Source.Workbook == "" {
			return errors.New("source.workbook is required for xlsx sources")
		}
	case SourceGoogle:
		if c.Source.SpreadsheetID == "" {
			return errors.New("source.spreadsheet_id is required for google sources")
		}
	default:
		return fmt.Errorf("source.kind: unknown kind %q", c.Source.Kind)
	}

	if !readRangePattern.MatchString(strings.ToUpper(c.Source.ReadRange)) {
		return fmt.Errorf("source.read_range %q must look like A1:H50", c.Source.ReadRange)
	}
	if !columnPattern.MatchString(strings.ToUpper(c.Source.ValueColumn)) {
		return fmt.Errorf("source.value_column %q is not a column name", c.Source.ValueColumn)
	}
	return nil
}

// Policy answers configuration questions for the rest of the board.
type Policy struct {
	config *Config
}

// New creates a new policy over cfg.
func New(cfg *Config) *Policy {
	return &Policy{config: cfg}
}

// Config returns the underlying configuration.
func (p *Policy) Config() *Config { return p.config }

// Title returns the dashboard title.
func (p *Policy) Title() string { return p.config.Title }

// Teams returns the configured team tabs in display order.
func (p *Policy) Teams() []string {
	return append([]string(nil), p.config.Teams...)
}

// CanonicalTeam returns the configured spelling of team (matched
// case-insensitively) and whether it is a configured team.
func (p *Policy) CanonicalTeam(team string) (string, bool) {
	for _, t := range p.config.Teams {
		if strings.EqualFold(t, strings.TrimSpace(team)) {
			return t, true
		}
	}
	return "", false
}

// ReadRange returns the per-tab read range, e.g. "A1:H50".
func (p *Policy) ReadRange() string {
	return strings.ToUpper(p.config.Source.ReadRange)
}

// ValueColumn returns the column holding KR current values.
func (p *Policy) ValueColumn() string {
	return strings.ToUpper(p.config.Source.ValueColumn)
}

// AuditTab returns the tab mirroring the audit log, or "" when disabled.
func (p *Policy) AuditTab() string { return p.config.Source.AuditTab }

// WorkbookPath returns the absolute xlsx workbook path.
func (p *Policy) WorkbookPath() string {
	return p.resolve(p.config.Source.Workbook)
}

// CredentialsFile returns the absolute service-account credentials path.
func (p *Policy) CredentialsFile() string {
	return p.resolve(p.config.Source.CredentialsFile)
}

// AuditDBPath returns the audit database path.
// If unset, defaults to ~/.config/okrboard/audit.sqlite.
func (p *Policy) AuditDBPath() string {
	if p.config.AuditDB == "" {
		return filepath.Join(GlobalStateDir(), "audit.sqlite")
	}
	return p.resolve(p.config.AuditDB)
}

// LogFile returns the configured log file path.
// If unset, defaults to ~/.config/okrboard/okrboard.log.
// Set to "none" or "off" to disable file logging entirely.
func (p *Policy) LogFile() string {
	lf := p.config.LogFile
	if lf == "" {
		return filepath.Join(GlobalStateDir(), "okrboard.log")
	}
	switch strings.ToLower(lf) {
	case "none", "off":
		return lf
	}
	return p.resolve(lf)
}

// WatchInterval returns the fallback poll interval for the workbook watcher.
func (p *Policy) WatchInterval() time.Duration {
	if p.config.WatchIntervalSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.config.WatchIntervalSeconds) * time.Second
}

// OverviewConcurrency bounds concurrent team loads in the overview.
func (p *Policy) OverviewConcurrency() int {
	if p.config.OverviewConcurrency <= 0 {
		return 1
	}
	return p.config.OverviewConcurrency
}

// IsToolEnabled checks if an MCP tool is enabled
func (p *Policy) IsToolEnabled(name string) bool {
	for _, t := range p.config.EnabledTools {
		if t == "*" || t == name {
			return true
		}
	}
	return false
}

// ValidateActor checks that email is well formed and, when domains are
// configured, belongs to one of them. It returns the bare address.
func (p *Policy) ValidateActor(email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("%w: actor email is required", ErrActorNotAllowed)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not an email address", ErrActorNotAllowed, email)
	}
	domains := p.config.Auth.AllowedDomains
	if len(domains) == 0 {
		return addr.Address, nil
	}
	lower := strings.ToLower(addr.Address)
	for _, d := range domains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if strings.HasSuffix(lower, "@"+d) {
			return addr.Address, nil
		}
	}
	return "", fmt.Errorf("%w: %s is outside the allowed domains", ErrActorNotAllowed, addr.Address)
}

func (p *Policy) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	base := p.config.BaseDir
	if base == "" {
		base, _ = os.Getwd()
	}
	return filepath.Join(base, path)
}
