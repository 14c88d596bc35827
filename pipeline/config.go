package pipeline

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/johnryanerminio/thrive-analytics/classifier"
	"github.com/johnryanerminio/thrive-analytics/corrector"
	"github.com/johnryanerminio/thrive-analytics/metrics"
	"github.com/johnryanerminio/thrive-analytics/normalizer"
)

const configFilePath = "config.json"

// Config represents the application's configuration structure. Every rule
// table ships with a default; only the data root and log level must be set.
type Config struct {
	DataRoot string `json:"data-root" mapstructure:"data-root"`
	LogLevel string `json:"log-level" mapstructure:"log-level"`
	Workers  int    `json:"workers" mapstructure:"workers"`

	// Filename keywords routing discovered CSVs to their parser.
	SalesKeywords     []string `json:"sales-keywords" mapstructure:"sales-keywords"`
	ExcludeKeywords   []string `json:"exclude-keywords" mapstructure:"exclude-keywords"`
	BudtenderKeywords []string `json:"budtender-keywords" mapstructure:"budtender-keywords"`
	CustomerKeywords  []string `json:"customer-keywords" mapstructure:"customer-keywords"`

	Normalizer      normalizer.Config        `json:"normalizer" mapstructure:"normalizer"`
	CostRules       []corrector.Rule         `json:"cost-rules" mapstructure:"cost-rules"`
	TxnRules        []classifier.TxnRule     `json:"txn-rules" mapstructure:"txn-rules"`
	DealRules       []classifier.DealRule    `json:"deal-rules" mapstructure:"deal-rules"`
	DealBands       []classifier.DealBand    `json:"deal-bands" mapstructure:"deal-bands"`
	SegmentKeywords []metrics.SegmentKeyword `json:"segment-keywords" mapstructure:"segment-keywords"`

	// MinTransactions gates budtenders out of the scoring population.
	MinTransactions int64 `json:"min-transactions" mapstructure:"min-transactions"`
	// TopN sizes the leaderboards (top customers, top deals per store).
	TopN int `json:"top-n" mapstructure:"top-n"`
}

var requiredFields = []string{
	"data-root",
	"log-level",
}

// InitConfig reads configuration from a JSON file and environment variables.
// Environment variables take precedence over the config file.
func InitConfig() (*Config, error) {
	v := viper.New()

	// Set config file type and name
	v.SetConfigFile(configFilePath)
	v.SetConfigType("json")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	for _, field := range requiredFields {
		v.BindEnv(field)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	for _, field := range requiredFields {
		if !v.IsSet(field) {
			return nil, fmt.Errorf("missing required config field: %s", field)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("sales-keywords", []string{"margin", "line_item", "line item", "sales performance"})
	v.SetDefault("exclude-keywords", []string{"bt sales", "bt_sales", "budtender", "customer"})
	v.SetDefault("budtender-keywords", []string{"bt sales", "bt_sales", "budtender"})
	v.SetDefault("customer-keywords", []string{"customer"})
	v.SetDefault("normalizer.column-aliases", normalizer.DefaultColumnAliases())
	v.SetDefault("normalizer.category-aliases", normalizer.DefaultCategoryAliases())
	v.SetDefault("normalizer.timestamp-layout", normalizer.DefaultTimestampLayout)
	v.SetDefault("cost-rules", corrector.DefaultRules())
	v.SetDefault("txn-rules", classifier.DefaultTxnRules())
	v.SetDefault("deal-rules", classifier.DefaultDealRules())
	v.SetDefault("deal-bands", classifier.DefaultDealBands())
	v.SetDefault("segment-keywords", metrics.DefaultSegmentKeywords())
	v.SetDefault("min-transactions", 20)
	v.SetDefault("top-n", 10)
}
