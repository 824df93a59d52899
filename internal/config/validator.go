package config

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"shufflebench/internal/benchmark"
	"shufflebench/internal/relation"
)

// ImageFormats are the chart formats the renderer can write.
var ImageFormats = []string{"svg", "png", "pdf", "eps", "jpg", "jpeg", "tif", "tiff"}

// ValidateConfig validates configuration values and returns an error listing
// every violation. It should be called after Load.
func ValidateConfig() error {
	var problems []string

	if workers := viper.GetInt("generate.workers"); workers <= 0 {
		problems = append(problems, fmt.Sprintf("generate.workers must be positive, got: %d", workers))
	}

	for _, s := range viper.GetStringSlice("generate.relations") {
		if _, err := relation.ParseSpec(s); err != nil {
			problems = append(problems, fmt.Sprintf("generate.relations: %v", err))
		}
	}

	if loc := viper.GetString("report.locale"); loc != "" {
		if _, err := language.Parse(loc); err != nil {
			problems = append(problems, fmt.Sprintf("report.locale %q is not a language tag", loc))
		}
	}

	if f := strings.ToLower(viper.GetString("report.format")); !isImageFormat(f) {
		problems = append(problems, fmt.Sprintf("report.format must be one of %s, got: %q", strings.Join(ImageFormats, ", "), f))
	}

	if w := viper.GetDuration("report.window"); w <= 0 {
		problems = append(problems, fmt.Sprintf("report.window must be positive, got: %v", w))
	}

	if n := viper.GetFloat64("report.total_tuples"); n < 0 {
		problems = append(problems, fmt.Sprintf("report.total_tuples must not be negative, got: %v", n))
	}

	if mode := viper.GetString("report.sync_mode"); mode != "" {
		if _, err := benchmark.ParseMode(mode); err != nil {
			problems = append(problems, fmt.Sprintf("report.sync_mode: %v", err))
		}
	}

	for _, source := range Sources {
		for size, sec := range Baselines(source) {
			if sec <= 0 {
				problems = append(problems, fmt.Sprintf("report.baselines.%s.%v must be positive, got: %v", source, size, sec))
			}
		}
	}

	if len(problems) > 0 {
		return errors.Newf("configuration validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func isImageFormat(f string) bool {
	for _, known := range ImageFormats {
		if f == known {
			return true
		}
	}
	return false
}
