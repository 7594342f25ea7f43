package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// StatsWindow holds the windowed statistics for one period (1h/6h/24h).
// The upstream API is inconsistent: a window arrives either as a bare
// number or as an object carrying the change under one of several keys.
type StatsWindow struct {
	PriceChange *float64
}

func (s *StatsWindow) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		s.PriceChange = nil
		return nil
	}
	if trimmed[0] != '{' {
		var v float64
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		s.PriceChange = &v
		return nil
	}
	var obj struct {
		PriceChange      *float64 `json:"priceChange"`
		PriceChangeSnake *float64 `json:"price_change"`
		Change           *float64 `json:"change"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	switch {
	case obj.PriceChange != nil:
		s.PriceChange = obj.PriceChange
	case obj.PriceChangeSnake != nil:
		s.PriceChange = obj.PriceChangeSnake
	case obj.Change != nil:
		s.PriceChange = obj.Change
	default:
		s.PriceChange = nil
	}
	return nil
}

// FlexTime is an epoch-millisecond timestamp that also decodes from an
// ISO/RFC3339 string. Decoding a value that is already numeric yields the
// same milliseconds, so repeated refreshes never shift a graduation time.
type FlexTime int64

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = 0
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			// Dates without an offset show up occasionally.
			parsed, err = time.Parse("2006-01-02T15:04:05", s)
			if err != nil {
				return err
			}
		}
		*t = FlexTime(parsed.UnixMilli())
		return nil
	}
	ms, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return err
		}
		ms = int64(f)
	}
	*t = FlexTime(ms)
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(t), 10)), nil
}

// Time converts the millisecond timestamp to a time.Time.
func (t FlexTime) Time() time.Time {
	return time.UnixMilli(int64(t))
}

// TokenInfo holds metadata for one mint as returned by the search endpoint.
type TokenInfo struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	Icon        string       `json:"icon"`
	Mcap        *float64     `json:"mcap"`
	Liquidity   *float64     `json:"liquidity"`
	USDPrice    *float64     `json:"usdPrice"`
	Website     string       `json:"website"`
	Twitter     string       `json:"twitter"`
	Telegram    string       `json:"telegram"`
	GraduatedAt *FlexTime    `json:"graduatedAt"`
	Stats1h     *StatsWindow `json:"stats1h"`
	Stats6h     *StatsWindow `json:"stats6h"`
	Stats24h    *StatsWindow `json:"stats24h"`
}

// TokenPrice holds the current quote for one mint. Independent of
// TokenInfo; a delisted token may keep metadata without a quote.
type TokenPrice struct {
	USDPrice       *float64     `json:"usdPrice"`
	PriceChange24h *float64     `json:"priceChange24h"`
	Stats1h        *StatsWindow `json:"stats1h"`
	Stats6h        *StatsWindow `json:"stats6h"`
	Stats24h       *StatsWindow `json:"stats24h"`
}

// TokenSnapshot is the immutable-per-refresh aggregate for one mint.
// Either side may be nil when the corresponding endpoint had no record.
type TokenSnapshot struct {
	Mint  string      `json:"mint"`
	Info  *TokenInfo  `json:"info"`
	Price *TokenPrice `json:"price"`
}

// Window selects one of the three statistics periods.
type Window int

const (
	Window1h Window = iota
	Window6h
	Window24h
)

// PriceChange resolves the percentage change for a window, preferring the
// info record over the price record; the 24h window additionally falls
// back to the quote's flat priceChange24h field.
func (s TokenSnapshot) PriceChange(w Window) *float64 {
	var info, price *StatsWindow
	switch w {
	case Window1h:
		if s.Info != nil {
			info = s.Info.Stats1h
		}
		if s.Price != nil {
			price = s.Price.Stats1h
		}
	case Window6h:
		if s.Info != nil {
			info = s.Info.Stats6h
		}
		if s.Price != nil {
			price = s.Price.Stats6h
		}
	case Window24h:
		if s.Info != nil {
			info = s.Info.Stats24h
		}
		if s.Price != nil {
			price = s.Price.Stats24h
		}
	}
	if info != nil && info.PriceChange != nil {
		return info.PriceChange
	}
	if price != nil && price.PriceChange != nil {
		return price.PriceChange
	}
	if w == Window24h && s.Price != nil && s.Price.PriceChange24h != nil {
		return s.Price.PriceChange24h
	}
	return nil
}

// USD returns the best available quote for the snapshot: the price record
// first, then the metadata's own usdPrice.
func (s TokenSnapshot) USD() *float64 {
	if s.Price != nil && s.Price.USDPrice != nil {
		return s.Price.USDPrice
	}
	if s.Info != nil && s.Info.USDPrice != nil {
		return s.Info.USDPrice
	}
	return nil
}

// Mcap returns the market capitalization when known.
func (s TokenSnapshot) Mcap() *float64 {
	if s.Info != nil {
		return s.Info.Mcap
	}
	return nil
}

// GraduatedAt returns the graduation timestamp, or nil when the token has
// not graduated.
func (s TokenSnapshot) GraduatedAt() *FlexTime {
	if s.Info != nil {
		return s.Info.GraduatedAt
	}
	return nil
}

// PricePoint holds a timestamped quote used for the history sparkline.
type PricePoint struct {
	Timestamp time.Time
	Value     float64
}

// MintResult holds test results for a single tracked mint.
type MintResult struct {
	Mint    string `json:"mint"`
	Valid   bool   `json:"valid"`
	OnCurve bool   `json:"on_curve"`
}

// TestReport holds the results of the configuration test.
type TestReport struct {
	ConfigPath      string       `json:"config_path"`
	ValidStructure  bool         `json:"valid_structure"`
	StructureErrors []string     `json:"structure_errors,omitempty"`
	MintCount       int          `json:"mint_count"`
	Mints           []MintResult `json:"mints,omitempty"`
	ConfigUpdated   bool         `json:"config_updated"`
	SaveError       string       `json:"save_error,omitempty"`
	DryRun          bool         `json:"dry_run"`
}
