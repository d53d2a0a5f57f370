package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the reports read: discovery locations,
// CSV field names, shaping thresholds, manual corrections. Reports take
// a Config value; no package-level mutable state exists.
type Config struct {
	// Where data lives. DataDir is searched directly plus
	// <FolderPrefix>_*/<Subfolder>/ underneath it.
	DataDir      string
	FolderPrefix string
	Subfolder    string

	// File patterns per data set.
	StartsPattern     string
	StartsZipPattern  string
	MonthlyPattern    string
	UnderlyingPattern string
	VacancyPattern    string

	DefaultStandardCode string
	DefaultProvider     string

	// Shaping thresholds.
	StartsMinThreshold  int
	LondonSMEMinAnnual  int
	AlwaysShowProviders []string

	// Funding type raw values and display labels.
	FundingLevyValue string
	FundingSMEValue  string
	FundingLevyLabel string
	FundingSMELabel  string

	// Vacancy categorization.
	VacancyLargeThreshold int
	VacancyMediumMin      int
	NonLondonMinPositions int
	LondonKeyword         string

	// Manual per-period corrections, provider -> period label -> delta.
	// Period labels use the display form, e.g. "2024-25 Q1" or "2023-24".
	Adjustments map[string]map[string]int

	// Providers rendered at the bottom and kept out of every total.
	ExcludedProviders []string

	Fields Fields

	Watch WatchConfig

	Strict bool
}

// Fields names the CSV columns each data set uses.
type Fields struct {
	StandardCode     string `yaml:"standard_code"`
	StandardName     string `yaml:"standard_name"`
	ProviderName     string `yaml:"provider_name"`
	ProviderFullName string `yaml:"provider_full_name"`
	EmployerFullName string `yaml:"employer_full_name"`
	FrameworkName    string `yaml:"framework_or_standard_name"`
	Year             string `yaml:"year"`
	Starts           string `yaml:"starts"`
	StartQuarter     string `yaml:"start_quarter"`
	StartMonth       string `yaml:"start_month"`
	LearnerRegion    string `yaml:"learner_home_region"`
	FundingType      string `yaml:"funding_type"`
	VacancyTown      string `yaml:"vacancy_town"`
	Positions        string `yaml:"number_of_positions"`
}

// WatchConfig drives the regenerate-on-change runner.
type WatchConfig struct {
	OutputDir  string   `yaml:"output_dir"`
	DebounceMS int      `yaml:"debounce_ms"`
	Reports    []string `yaml:"reports"`
	Format     string   `yaml:"format"`
}

type fileConfig struct {
	DataDir      string `yaml:"data_dir"`
	FolderPrefix string `yaml:"folder_prefix"`
	Subfolder    string `yaml:"subfolder"`

	StartsPattern     string `yaml:"starts_pattern"`
	StartsZipPattern  string `yaml:"starts_zip_pattern"`
	MonthlyPattern    string `yaml:"monthly_pattern"`
	UnderlyingPattern string `yaml:"underlying_pattern"`
	VacancyPattern    string `yaml:"vacancy_pattern"`

	DefaultStandardCode string `yaml:"default_standard_code"`
	DefaultProvider     string `yaml:"default_provider"`

	StartsMinThreshold  *int     `yaml:"starts_min_threshold"`
	LondonSMEMinAnnual  *int     `yaml:"london_sme_min_annual"`
	AlwaysShowProviders []string `yaml:"always_show_providers"`

	FundingLevyValue string `yaml:"funding_levy_value"`
	FundingSMEValue  string `yaml:"funding_sme_value"`
	FundingLevyLabel string `yaml:"funding_levy_label"`
	FundingSMELabel  string `yaml:"funding_sme_label"`

	VacancyLargeThreshold *int   `yaml:"vacancy_large_threshold"`
	VacancyMediumMin      *int   `yaml:"vacancy_medium_min"`
	NonLondonMinPositions *int   `yaml:"non_london_min_positions"`
	LondonKeyword         string `yaml:"london_keyword"`

	Adjustments       map[string]map[string]int `yaml:"adjustments"`
	ExcludedProviders []string                  `yaml:"excluded_providers"`

	Fields *Fields      `yaml:"fields"`
	Watch  *WatchConfig `yaml:"watch"`
}

// Default returns the built-in configuration, matching the published
// DfE data layout and the reports as they have always run.
func Default() Config {
	return Config{
		DataDir:      ".",
		FolderPrefix: "apprenticeships",
		Subfolder:    "supporting-files",

		StartsPattern:     "app-underlying-data-starts-*.csv",
		StartsZipPattern:  "app-underlying-data-starts-*.zip",
		MonthlyPattern:    "app-underlying-data-monthly-starts-*.csv",
		UnderlyingPattern: "app-underlying-data-starts-*.csv",
		VacancyPattern:    "app-underlying-data-vacancies-*.csv",

		DefaultStandardCode: "ST0116",
		DefaultProvider:     "FOUNDERS & CODERS",

		StartsMinThreshold:  3,
		LondonSMEMinAnnual:  4,
		AlwaysShowProviders: []string{"FOUNDERS & CODERS"},

		FundingLevyValue: "Supported by ASA levy funds",
		FundingSMEValue:  "Other",
		FundingLevyLabel: "Large employers (levy-funded)",
		FundingSMELabel:  "SMEs (other funding)",

		VacancyLargeThreshold: 10,
		VacancyMediumMin:      4,
		NonLondonMinPositions: 3,
		LondonKeyword:         "london",

		// Employer-provider apprenticeships misclassified as levy-funded
		// in the published data.
		Adjustments: map[string]map[string]int{
			"FOUNDERS & CODERS": {
				"2024-25 Q3": 1,
				"2024-25 Q2": 2,
				"2024-25 Q1": 1,
				"2023-24":    3,
				"2022-23":    2,
			},
		},
		ExcludedProviders: []string{
			"LONDON COLLEGE OF GLOBAL EDUCATION",
			"CITY COLLEGE OF LONDON",
		},

		Fields: Fields{
			StandardCode:     "st_code",
			StandardName:     "std_fwk_name",
			ProviderName:     "provider_name",
			ProviderFullName: "provider_full_name",
			EmployerFullName: "employer_full_name",
			FrameworkName:    "framework_or_standard_name",
			Year:             "year",
			Starts:           "starts",
			StartQuarter:     "start_quarter",
			StartMonth:       "start_month",
			LearnerRegion:    "learner_home_region",
			FundingType:      "funding_type",
			VacancyTown:      "vacancy_town",
			Positions:        "number_of_positions",
		},

		Watch: WatchConfig{
			OutputDir:  "reports",
			DebounceMS: 500,
			Reports:    []string{"starts", "regions", "funding", "combined", "monthly"},
			Format:     "markdown",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment overrides, in that precedence order. A broken file is
// an error in strict mode and logged-and-skipped otherwise.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.Strict = parseBoolEnv("APP_DATA_STRICT_CONFIG")

	if path == "" {
		path = os.Getenv("APP_DATA_CONFIG")
	}
	if path != "" {
		fileCfg, err := loadFileConfig(path)
		if err != nil {
			if cfg.Strict {
				return cfg, fmt.Errorf("config load failed (%s): %w", path, err)
			}
			log.Printf("config load failed (%s): %v (using defaults)", path, err)
		} else {
			applyFileConfig(&cfg, fileCfg)
		}
	}

	cfg.DataDir = firstNonEmpty(os.Getenv("APP_DATA_DIR"), cfg.DataDir)
	cfg.FolderPrefix = firstNonEmpty(os.Getenv("APP_DATA_FOLDER_PREFIX"), cfg.FolderPrefix)
	cfg.DefaultStandardCode = firstNonEmpty(os.Getenv("APP_DATA_STANDARD_CODE"), cfg.DefaultStandardCode)
	cfg.DefaultProvider = firstNonEmpty(os.Getenv("APP_DATA_PROVIDER"), cfg.DefaultProvider)

	if v, ok, err := parseIntEnv("APP_DATA_STARTS_MIN"); err != nil {
		if cfg.Strict {
			return cfg, fmt.Errorf("invalid APP_DATA_STARTS_MIN: %w", err)
		}
		log.Printf("invalid APP_DATA_STARTS_MIN: %v (using %d)", err, cfg.StartsMinThreshold)
	} else if ok && v >= 0 {
		cfg.StartsMinThreshold = v
	}

	if err := validate(cfg); err != nil {
		if cfg.Strict {
			return cfg, err
		}
		log.Printf("config validation failed: %v (continuing)", err)
	}
	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFileConfig(cfg *Config, file fileConfig) {
	cfg.DataDir = firstNonEmpty(file.DataDir, cfg.DataDir)
	cfg.FolderPrefix = firstNonEmpty(file.FolderPrefix, cfg.FolderPrefix)
	cfg.Subfolder = firstNonEmpty(file.Subfolder, cfg.Subfolder)

	cfg.StartsPattern = firstNonEmpty(file.StartsPattern, cfg.StartsPattern)
	cfg.StartsZipPattern = firstNonEmpty(file.StartsZipPattern, cfg.StartsZipPattern)
	cfg.MonthlyPattern = firstNonEmpty(file.MonthlyPattern, cfg.MonthlyPattern)
	cfg.UnderlyingPattern = firstNonEmpty(file.UnderlyingPattern, cfg.UnderlyingPattern)
	cfg.VacancyPattern = firstNonEmpty(file.VacancyPattern, cfg.VacancyPattern)

	cfg.DefaultStandardCode = firstNonEmpty(file.DefaultStandardCode, cfg.DefaultStandardCode)
	cfg.DefaultProvider = firstNonEmpty(file.DefaultProvider, cfg.DefaultProvider)

	if file.StartsMinThreshold != nil && *file.StartsMinThreshold >= 0 {
		cfg.StartsMinThreshold = *file.StartsMinThreshold
	}
	if file.LondonSMEMinAnnual != nil && *file.LondonSMEMinAnnual >= 0 {
		cfg.LondonSMEMinAnnual = *file.LondonSMEMinAnnual
	}
	if len(file.AlwaysShowProviders) > 0 {
		cfg.AlwaysShowProviders = file.AlwaysShowProviders
	}

	cfg.FundingLevyValue = firstNonEmpty(file.FundingLevyValue, cfg.FundingLevyValue)
	cfg.FundingSMEValue = firstNonEmpty(file.FundingSMEValue, cfg.FundingSMEValue)
	cfg.FundingLevyLabel = firstNonEmpty(file.FundingLevyLabel, cfg.FundingLevyLabel)
	cfg.FundingSMELabel = firstNonEmpty(file.FundingSMELabel, cfg.FundingSMELabel)

	if file.VacancyLargeThreshold != nil && *file.VacancyLargeThreshold > 0 {
		cfg.VacancyLargeThreshold = *file.VacancyLargeThreshold
	}
	if file.VacancyMediumMin != nil && *file.VacancyMediumMin > 0 {
		cfg.VacancyMediumMin = *file.VacancyMediumMin
	}
	if file.NonLondonMinPositions != nil && *file.NonLondonMinPositions > 0 {
		cfg.NonLondonMinPositions = *file.NonLondonMinPositions
	}
	cfg.LondonKeyword = firstNonEmpty(file.LondonKeyword, cfg.LondonKeyword)

	if file.Adjustments != nil {
		cfg.Adjustments = file.Adjustments
	}
	if file.ExcludedProviders != nil {
		cfg.ExcludedProviders = file.ExcludedProviders
	}
	if file.Fields != nil {
		applyFields(&cfg.Fields, *file.Fields)
	}
	if file.Watch != nil {
		cfg.Watch.OutputDir = firstNonEmpty(file.Watch.OutputDir, cfg.Watch.OutputDir)
		if file.Watch.DebounceMS > 0 {
			cfg.Watch.DebounceMS = file.Watch.DebounceMS
		}
		if len(file.Watch.Reports) > 0 {
			cfg.Watch.Reports = file.Watch.Reports
		}
		cfg.Watch.Format = firstNonEmpty(file.Watch.Format, cfg.Watch.Format)
	}
}

func applyFields(dst *Fields, src Fields) {
	dst.StandardCode = firstNonEmpty(src.StandardCode, dst.StandardCode)
	dst.StandardName = firstNonEmpty(src.StandardName, dst.StandardName)
	dst.ProviderName = firstNonEmpty(src.ProviderName, dst.ProviderName)
	dst.ProviderFullName = firstNonEmpty(src.ProviderFullName, dst.ProviderFullName)
	dst.EmployerFullName = firstNonEmpty(src.EmployerFullName, dst.EmployerFullName)
	dst.FrameworkName = firstNonEmpty(src.FrameworkName, dst.FrameworkName)
	dst.Year = firstNonEmpty(src.Year, dst.Year)
	dst.Starts = firstNonEmpty(src.Starts, dst.Starts)
	dst.StartQuarter = firstNonEmpty(src.StartQuarter, dst.StartQuarter)
	dst.StartMonth = firstNonEmpty(src.StartMonth, dst.StartMonth)
	dst.LearnerRegion = firstNonEmpty(src.LearnerRegion, dst.LearnerRegion)
	dst.FundingType = firstNonEmpty(src.FundingType, dst.FundingType)
	dst.VacancyTown = firstNonEmpty(src.VacancyTown, dst.VacancyTown)
	dst.Positions = firstNonEmpty(src.Positions, dst.Positions)
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if strings.TrimSpace(cfg.FolderPrefix) == "" {
		return errors.New("folder_prefix is required")
	}
	if cfg.StartsMinThreshold < 0 {
		return errors.New("starts_min_threshold must not be negative")
	}
	if cfg.VacancyMediumMin > cfg.VacancyLargeThreshold {
		return fmt.Errorf("vacancy_medium_min (%d) must not exceed vacancy_large_threshold (%d)",
			cfg.VacancyMediumMin, cfg.VacancyLargeThreshold)
	}
	if cfg.Watch.DebounceMS <= 0 {
		return errors.New("watch debounce must be positive")
	}
	for provider, periods := range cfg.Adjustments {
		if strings.TrimSpace(provider) == "" {
			return errors.New("adjustments must name a provider")
		}
		for label := range periods {
			if strings.TrimSpace(label) == "" {
				return fmt.Errorf("adjustment for %q has an empty period label", provider)
			}
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}
