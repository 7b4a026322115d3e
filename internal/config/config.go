package config

import (
	"fmt"
	"strings"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	// When set, the bill-number counter is backed by Redis instead of Postgres.
	RedisURL string `env:"REDIS_URL"`
	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	FirstCutoffHour  int `env:"FIRST_CUTOFF_HOUR,default=8"`
	SecondCutoffHour int `env:"SECOND_CUTOFF_HOUR,default=12"`
	TZOffsetHours    int `env:"TZ_OFFSET_HOURS,default=3"`

	SchedulerEnabled bool   `env:"SCHEDULER_ENABLED,default=true"`
	AlertWebhookURL  string `env:"ALERT_WEBHOOK_URL"`

	BillNumberTemplate string `env:"BILL_NUMBER_TEMPLATE,default=DB-{YY}{MM}-{SEQ5}"`
	DefaultFirm        string `env:"DEFAULT_FIRM,default=general"`
	// Comma separated category=firm pairs, e.g. "dairy=lacto,greens=verde".
	FirmCategoryMap string `env:"FIRM_CATEGORY_MAP"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.FirstCutoffHour <= 0 || c.FirstCutoffHour >= c.SecondCutoffHour || c.SecondCutoffHour > 23 {
		return fmt.Errorf("invalid cutoff hours: first=%d second=%d", c.FirstCutoffHour, c.SecondCutoffHour)
	}
	if c.TZOffsetHours < -12 || c.TZOffsetHours > 14 {
		return fmt.Errorf("invalid timezone offset: %d", c.TZOffsetHours)
	}
	if strings.TrimSpace(c.DefaultFirm) == "" {
		return fmt.Errorf("default firm must not be empty")
	}
	if _, err := c.FirmsByCategory(); err != nil {
		return err
	}
	return nil
}

// FirmsByCategory parses FIRM_CATEGORY_MAP into a category -> firm lookup.
func (c *Config) FirmsByCategory() (map[string]string, error) {
	firms := make(map[string]string)

	raw := strings.TrimSpace(c.FirmCategoryMap)
	if raw == "" {
		return firms, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		category, firm, ok := strings.Cut(pair, "=")
		category = strings.TrimSpace(category)
		firm = strings.TrimSpace(firm)
		if !ok || category == "" || firm == "" {
			return nil, fmt.Errorf("invalid firm category mapping %q", pair)
		}
		firms[strings.ToLower(category)] = firm
	}

	return firms, nil
}
