package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/vols1365/internal/region"
)

// KST is the fixed UTC+9 zone the 1365 portal uses for its dates.
var KST = time.FixedZone("KST", 9*60*60)

// Config is the resolved, immutable configuration of one run.
type Config struct {
	ServiceKey string `validate:"required"`

	UseNoticeRange bool
	OffsetBegin    int
	OffsetEnd      int `validate:"gtefield=OffsetBegin"`

	SidoName      string
	SidoCode      string `validate:"omitempty,numeric"`
	GugunCode     string `validate:"omitempty,numeric"`
	ProgramStatus string `validate:"omitempty,numeric"`
	Keyword       string

	RecruitingOnly     bool
	StrictRegionFilter bool
	ShardByDistrict    bool
	Shards             []string

	PageSize   int `validate:"min=1,max=1000"`
	MaxPages   int `validate:"min=1"`
	DesiredMin int `validate:"min=1"`

	ListConcurrency   int           `validate:"min=1"`
	ListPageDelay     time.Duration `validate:"gte=0"`
	DetailConcurrency int           `validate:"min=1"`
	DetailDelay       time.Duration `validate:"gte=0"`
	MaxDetail         int           `validate:"gte=0"`
	HTTPTimeout       time.Duration `validate:"gt=0"`
	RetryMax          int           `validate:"gte=0"`

	DataDir  string `validate:"required"`
	DebugDir string
	LogLevel string

	// Today is the run's calendar date in KST, truncated to midnight.
	Today time.Time
}

// Options control where Load reads its values from.
type Options struct {
	// ConfigFile is an optional YAML file of KEY: value pairs.
	ConfigFile string
	// EnvFile is a dotenv file. Empty means ".env" when it exists.
	EnvFile string
	// Lookup reads the process environment. Defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
	// SecretLookup resolves SERVICE_KEY when the environment lacks it.
	// Defaults to the OS keyring.
	SecretLookup func() (string, error)
	// Now defaults to time.Now.
	Now func() time.Time
}

var defaults = map[string]string{
	"USE_NOTICE_RANGE":     "false",
	"OFFSET_BG":            "0",
	"OFFSET_ED":            "30",
	"RECRUITING_ONLY":      "true",
	"PER":                  "100",
	"MAX_PAGES":            "50",
	"SHARD_GUGUN":          "true",
	"DESIRED_MIN":          "5000",
	"DETAIL_CONCURRENCY":   "16",
	"DETAIL_DELAY_MS":      "0",
	"MAX_DETAIL":           "999999",
	"LIST_CONCURRENCY":     "1",
	"LIST_PAGE_DELAY_MS":   "350",
	"HTTP_TIMEOUT_MS":      "45000",
	"STRICT_REGION_FILTER": "true",
	"RETRY_MAX":            "5",
	"DATA_DIR":             "docs/data",
	"DEBUG_DIR":            "docs/debug",
	"LOG_LEVEL":            "INFO",
}

// source layers the environment over the dotenv file, the YAML file and the
// defaults, in that order.
type source struct {
	lookup func(string) (string, bool)
	dotenv map[string]string
	file   map[string]string
	err    error
}

func (s *source) get(key string) string {
	if v, ok := s.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v, ok := s.dotenv[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v, ok := s.file[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return defaults[key]
}

func (s *source) str(key string) string {
	return s.get(key)
}

func (s *source) int(key string) int {
	v := s.get(key)
	if v == "" {
		return 0
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		s.fail(fmt.Errorf("%s: invalid integer %q", key, v))
		return 0
	}
	return i
}

func (s *source) millis(key string) time.Duration {
	return time.Duration(s.int(key)) * time.Millisecond
}

func (s *source) bool(key string) bool {
	v := s.get(key)
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off", "":
		return false
	default:
		s.fail(fmt.Errorf("%s: invalid boolean %q", key, v))
		return false
	}
}

func (s *source) list(key string) []string {
	v := s.get(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *source) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func newSource(opts Options) (*source, error) {
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}
	src := &source{lookup: opts.Lookup}

	dotenv, err := readDotenv(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	src.dotenv = dotenv

	file, err := readYAML(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	src.file = file
	return src, nil
}

// DataDir resolves DATA_DIR through the same layers as Load without
// requiring a service key.
func DataDir(opts Options) (string, error) {
	src, err := newSource(opts)
	if err != nil {
		return "", err
	}
	return src.str("DATA_DIR"), nil
}

// Load resolves the run configuration. Precedence, highest first: process
// environment, dotenv file, YAML file, built-in defaults.
func Load(opts Options) (Config, error) {
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}
	if opts.SecretLookup == nil {
		opts.SecretLookup = KeyringServiceKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	src, err := newSource(opts)
	if err != nil {
		return Config{}, err
	}

	// AXIOS_TIMEOUT_MS is the historical name of HTTP_TIMEOUT_MS.
	timeoutKey := "HTTP_TIMEOUT_MS"
	if _, ok := opts.Lookup(timeoutKey); !ok && src.dotenv[timeoutKey] == "" && src.file[timeoutKey] == "" {
		if v := src.get("AXIOS_TIMEOUT_MS"); v != "" {
			timeoutKey = "AXIOS_TIMEOUT_MS"
		}
	}

	cfg := Config{
		UseNoticeRange:     src.bool("USE_NOTICE_RANGE"),
		OffsetBegin:        src.int("OFFSET_BG"),
		OffsetEnd:          src.int("OFFSET_ED"),
		SidoName:           src.str("SIDO_NAME"),
		SidoCode:           src.str("SIDO_CODE"),
		GugunCode:          src.str("GUGUN_CODE"),
		ProgramStatus:      src.str("PROGRM_STTUS_SE"),
		Keyword:            src.str("KEYWORD"),
		RecruitingOnly:     src.bool("RECRUITING_ONLY"),
		StrictRegionFilter: src.bool("STRICT_REGION_FILTER"),
		ShardByDistrict:    src.bool("SHARD_GUGUN"),
		Shards:             src.list("SHARDS"),
		PageSize:           src.int("PER"),
		MaxPages:           src.int("MAX_PAGES"),
		DesiredMin:         src.int("DESIRED_MIN"),
		ListConcurrency:    src.int("LIST_CONCURRENCY"),
		ListPageDelay:      src.millis("LIST_PAGE_DELAY_MS"),
		DetailConcurrency:  src.int("DETAIL_CONCURRENCY"),
		DetailDelay:        src.millis("DETAIL_DELAY_MS"),
		MaxDetail:          src.int("MAX_DETAIL"),
		HTTPTimeout:        src.millis(timeoutKey),
		RetryMax:           src.int("RETRY_MAX"),
		DataDir:            src.str("DATA_DIR"),
		DebugDir:           src.str("DEBUG_DIR"),
		LogLevel:           src.str("LOG_LEVEL"),
		Today:              TodayKST(opts.Now()),
	}
	if src.err != nil {
		return Config{}, src.err
	}

	key := src.str("SERVICE_KEY")
	if key == "" {
		key, err = opts.SecretLookup()
		if err != nil {
			return Config{}, err
		}
	}
	cfg.ServiceKey = key

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readDotenv(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return values, nil
}

func readYAML(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Keys may be written in lower case in YAML.
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return values, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			if verrs[0].Field() == "ServiceKey" {
				return ErrMissingServiceKey
			}
			return fmt.Errorf("invalid config: %s failed %q (value %v)",
				verrs[0].Field(), verrs[0].Tag(), verrs[0].Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TodayKST returns midnight of t's calendar day in KST.
func TodayKST(t time.Time) time.Time {
	k := t.In(KST)
	return time.Date(k.Year(), k.Month(), k.Day(), 0, 0, 0, 0, KST)
}

// FormatYMD formats t as an 8-digit YYYYMMDD string.
func FormatYMD(t time.Time) string {
	return t.Format("20060102")
}

// NoticeRange returns the notice window [today+OffsetBegin, today+OffsetEnd]
// as YYYYMMDD strings.
func (c Config) NoticeRange() (begin, end string) {
	return FormatYMD(c.Today.AddDate(0, 0, c.OffsetBegin)), FormatYMD(c.Today.AddDate(0, 0, c.OffsetEnd))
}

// RegionHints are the substrings that identify the configured region in
// free text.
func (c Config) RegionHints() []string {
	return region.Hints(c.SidoCode, c.SidoName)
}

// ShardKeys returns the keywords to sweep, or nil when sharding does not
// apply to the configured region.
func (c Config) ShardKeys() []string {
	if !c.ShardByDistrict {
		return nil
	}
	if len(c.Shards) > 0 {
		out := make([]string, len(c.Shards))
		copy(out, c.Shards)
		return out
	}
	return region.Districts(c.SidoCode)
}

// Params is the configuration echo written into the snapshot. Key names
// match the environment variables so consumers can reproduce a run.
func (c Config) Params() map[string]interface{} {
	var noticeBegin, noticeEnd string
	if c.UseNoticeRange {
		noticeBegin, noticeEnd = c.NoticeRange()
	}
	return map[string]interface{}{
		"USE_NOTICE_RANGE":     c.UseNoticeRange,
		"NOTICE_BG":            noticeBegin,
		"NOTICE_ED":            noticeEnd,
		"OFFSET_BG":            c.OffsetBegin,
		"OFFSET_ED":            c.OffsetEnd,
		"SIDO_NAME":            c.SidoName,
		"SIDO_CODE":            c.SidoCode,
		"GUGUN_CODE":           c.GugunCode,
		"PROGRM_STTUS_SE":      c.ProgramStatus,
		"RECRUITING_ONLY":      c.RecruitingOnly,
		"PER":                  c.PageSize,
		"MAX_PAGES":            c.MaxPages,
		"KEYWORD":              c.Keyword,
		"SHARD_GUGUN":          c.ShardByDistrict,
		"DESIRED_MIN":          c.DesiredMin,
		"DETAIL_CONCURRENCY":   c.DetailConcurrency,
		"DETAIL_DELAY_MS":      c.DetailDelay.Milliseconds(),
		"MAX_DETAIL":           c.MaxDetail,
		"LIST_CONCURRENCY":     c.ListConcurrency,
		"LIST_PAGE_DELAY_MS":   c.ListPageDelay.Milliseconds(),
		"AXIOS_TIMEOUT_MS":     c.HTTPTimeout.Milliseconds(),
		"STRICT_REGION_FILTER": c.StrictRegionFilter,
		"RETRY_MAX":            c.RetryMax,
		"refreshApplied":       "always",
	}
}
