package config

import (
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"shufflebench/internal/relation"
)

// EnvPrefix is prepended to every environment override, e.g.
// SHUFFLEBENCH_REPORT_LOCALE=de.
const EnvPrefix = "SHUFFLEBENCH"

// Sources are the machines the benchmarks were run on.
var Sources = []string{"laptop", "server"}

// tupleGeneration holds the measured tuple generation time in seconds per
// source and tuple size in bytes.
var tupleGeneration = map[string]map[string]float64{
	"laptop": {"4": 0.48, "16": 1.24, "100": 1.56},
	"server": {"4": 1.41, "16": 3.13, "100": 3.71},
}

// Load initializes the configuration from an optional .env file, the config
// file and environment variables. Without cfgFile a shufflebench.yaml in the
// working directory is used if present.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("shufflebench")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "reading config")
	}
	slog.Debug("Using config file", "path", viper.ConfigFileUsed())
	return nil
}

func setDefaults() {
	viper.SetDefault("verbose", false)

	viper.SetDefault("generate.dir", "./data")
	viper.SetDefault("generate.workers", runtime.NumCPU())
	viper.SetDefault("generate.seed", 0)
	var specs []string
	for _, s := range relation.DefaultRelations() {
		specs = append(specs, s.String())
	}
	viper.SetDefault("generate.relations", specs)

	viper.SetDefault("report.locale", "en")
	viper.SetDefault("report.format", "svg")
	viper.SetDefault("report.grouping_column", "tuple_size-Partitions")
	viper.SetDefault("report.total_tuples", 0)
	viper.SetDefault("report.window", "1s")
	viper.SetDefault("report.sync_mode", "not-synchronised")
	viper.SetDefault("report.reference", "SmbLockFreeBatched")
	viper.SetDefault("report.partition_benchmark", "OnDemandSingleThreadOrchestrator")
	for source, sizes := range tupleGeneration {
		for size, sec := range sizes {
			viper.SetDefault("report.baselines."+source+"."+size, sec)
		}
	}

	viper.SetDefault("archive.type", "sqlite")
	viper.SetDefault("archive.db", "shufflebench.db")
	viper.SetDefault("publish.target", "")
	viper.SetDefault("publish.retries", 3)
	viper.SetDefault("publish.retry_delay", "2s")
}

// Relations returns the configured relation set.
func Relations() ([]relation.Spec, error) {
	var specs []relation.Spec
	for _, s := range viper.GetStringSlice("generate.relations") {
		spec, err := relation.ParseSpec(s)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Baselines returns the tuple generation time per tuple size for source.
func Baselines(source string) map[float64]float64 {
	key := "report.baselines." + strings.ToLower(source)
	out := make(map[float64]float64)
	for size := range viper.GetStringMap(key) {
		bytes, err := strconv.ParseFloat(size, 64)
		if err != nil {
			continue
		}
		out[bytes] = viper.GetFloat64(key + "." + size)
	}
	return out
}
