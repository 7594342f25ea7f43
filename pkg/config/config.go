package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"solfavs/pkg/mint"
)

const ConfigFileName = ".solfavs.json"

// DefaultMints seeds the tracked list when nothing valid is stored.
var DefaultMints = []string{
	"Eppcp4FhG6wmaRno3omWWvKsZHbzucVLR316SdXopump",
	"wCtiCRJz69a5Mqkk2nHmvQwBGQCrUvM8fELoFGqpump",
	"H8xQ6poBjB9DTPMDTKWzWPrnxu4bDEhybxiouF8Ppump",
	"623fhWRdnYVxQKe1RcZvVHxTDeAftRGBApUtzrRKpump",
}

// StyleOptions enumerates the selectable color styles; the first entry is
// the fallback for unknown stored values.
var StyleOptions = []string{"default", "gemini", "gemini-2", "gemini-3"}

// RefreshIntervals lists the selectable polling cadences in seconds; zero
// disables automatic refresh.
var RefreshIntervals = []int{0, 30, 60, 300, 600}

const defaultRefreshInterval = 60

// SortState holds the persisted sort preference.
type SortState struct {
	By        string `json:"by"`
	Direction string `json:"direction"`
}

// FilterState holds the persisted filter preference.
type FilterState struct {
	Mcap       string `json:"mcap"`
	Graduation string `json:"graduation"`
}

// Preferences holds every durable user setting.
type Preferences struct {
	Mints                  []string    `json:"mints"`
	Theme                  string      `json:"theme"`
	View                   string      `json:"view"`
	Display                string      `json:"display"`
	ClipboardWatch         bool        `json:"clipboard_watch"`
	Style                  string      `json:"style"`
	RefreshIntervalSeconds int         `json:"refresh_interval_seconds"`
	Sort                   SortState   `json:"sort"`
	Filter                 FilterState `json:"filter"`
}

// Defaults returns the preferences used when nothing is stored.
func Defaults() Preferences {
	return Preferences{
		Mints:                  append([]string(nil), DefaultMints...),
		Theme:                  "dark",
		View:                   "compact",
		Display:                "mcap",
		ClipboardWatch:         false,
		Style:                  StyleOptions[0],
		RefreshIntervalSeconds: defaultRefreshInterval,
		Sort:                   SortState{By: "default", Direction: "desc"},
		Filter:                 FilterState{Mcap: "all", Graduation: "all"},
	}
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

// LoadFromFile reads preferences from path. A missing file or unparseable
// document degrades to defaults: preferences are never a reason to refuse
// startup. The warning goes to stderr so the TUI stays clean.
func LoadFromFile(path string) Preferences {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Defaults()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot read %s: %v; using defaults\n", path, err)
		return Defaults()
	}
	defer func() { _ = f.Close() }()

	prefs, err := Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot parse %s: %v; using defaults\n", path, err)
		return Defaults()
	}
	return prefs
}

// Load decodes preferences from r, validating each key independently and
// falling back to its default on mismatch. Partial/old documents are
// merged field-by-field over the defaults.
func Load(r io.Reader) (Preferences, error) {
	var raw struct {
		Mints          json.RawMessage `json:"mints"`
		Theme          *string         `json:"theme"`
		View           *string         `json:"view"`
		Display        *string         `json:"display"`
		ClipboardWatch json.RawMessage `json:"clipboard_watch"`
		Style          *string         `json:"style"`
		Interval       *int            `json:"refresh_interval_seconds"`
		Sort           *struct {
			By        *string `json:"by"`
			Direction *string `json:"direction"`
		} `json:"sort"`
		Filter *struct {
			Mcap       *string `json:"mcap"`
			Graduation *string `json:"graduation"`
		} `json:"filter"`
	}
	prefs := Defaults()
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return prefs, err
	}

	prefs.Mints = sanitizeMints(raw.Mints)

	if raw.Theme != nil && oneOf(*raw.Theme, "light", "dark") {
		prefs.Theme = *raw.Theme
	}
	if raw.View != nil && oneOf(*raw.View, "compact", "expanded") {
		prefs.View = *raw.View
	}
	if raw.Display != nil && oneOf(*raw.Display, "mcap", "price") {
		prefs.Display = *raw.Display
	}
	if b, ok := parseFlexBool(raw.ClipboardWatch); ok {
		prefs.ClipboardWatch = b
	}
	if raw.Style != nil {
		prefs.Style = NormalizeStyle(*raw.Style)
	}
	if raw.Interval != nil {
		prefs.RefreshIntervalSeconds = NormalizeInterval(*raw.Interval)
	}
	if raw.Sort != nil {
		if raw.Sort.By != nil && oneOf(*raw.Sort.By, "default", "mcap", "graduatedAt", "1h", "6h", "24h") {
			prefs.Sort.By = *raw.Sort.By
		}
		if raw.Sort.Direction != nil && oneOf(*raw.Sort.Direction, "asc", "desc") {
			prefs.Sort.Direction = *raw.Sort.Direction
		}
	}
	if raw.Filter != nil {
		if raw.Filter.Mcap != nil && oneOf(*raw.Filter.Mcap, "all", "under_1m", "1m_10m", "10m_100m", "over_100m") {
			prefs.Filter.Mcap = *raw.Filter.Mcap
		}
		if raw.Filter.Graduation != nil && oneOf(*raw.Filter.Graduation,
			"all", "not_graduated", "graduated_1d", "graduated_3d",
			"graduated_7d", "graduated_30d", "graduated_over_30d") {
			prefs.Filter.Graduation = *raw.Filter.Graduation
		}
	}

	return prefs, nil
}

// sanitizeMints filters a stored mint array to syntactically valid,
// deduplicated entries; anything unusable yields the default list.
func sanitizeMints(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return append([]string(nil), DefaultMints...)
	}
	var stored []string
	if err := json.Unmarshal(raw, &stored); err != nil {
		return append([]string(nil), DefaultMints...)
	}
	seen := make(map[string]struct{}, len(stored))
	var mints []string
	for _, value := range stored {
		m := strings.TrimSpace(value)
		if !mint.IsLikelyMint(m) {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		mints = append(mints, m)
	}
	if len(mints) == 0 {
		return append([]string(nil), DefaultMints...)
	}
	return mints
}

// parseFlexBool accepts a JSON bool or its string form ("true"/"false"),
// which older versions of the preference file used.
func parseFlexBool(raw json.RawMessage) (bool, bool) {
	if len(raw) == 0 {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.TrimSpace(s) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// NormalizeStyle maps an arbitrary style identifier onto the enumerated
// set, falling back to the first entry.
func NormalizeStyle(style string) string {
	for _, s := range StyleOptions {
		if s == style {
			return style
		}
	}
	return StyleOptions[0]
}

// NormalizeInterval clamps an interval to the supported cadences.
func NormalizeInterval(seconds int) int {
	for _, v := range RefreshIntervals {
		if v == seconds {
			return seconds
		}
	}
	return defaultRefreshInterval
}

func oneOf(value string, valid ...string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}

// Save writes preferences atomically, keeping a timestamped backup of the
// previous file. Invalid mints are dropped rather than persisted.
func Save(prefs Preferences, path string) error {
	var mints []string
	for _, m := range prefs.Mints {
		if mint.IsLikelyMint(m) {
			mints = append(mints, strings.TrimSpace(m))
		}
	}
	prefs.Mints = mints
	prefs.Theme = pickValid(prefs.Theme, "dark", "light", "dark")
	prefs.View = pickValid(prefs.View, "compact", "expanded", "compact")
	prefs.Display = pickValid(prefs.Display, "mcap", "price", "mcap")
	prefs.Style = NormalizeStyle(prefs.Style)
	prefs.RefreshIntervalSeconds = NormalizeInterval(prefs.RefreshIntervalSeconds)

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("validation failed: encoded preferences are empty")
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0644); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func pickValid(value, a, b, fallback string) string {
	if value == a || value == b {
		return value
	}
	return fallback
}

func RestoreLastBackup(configPath string) error {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}
