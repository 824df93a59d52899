package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// The helpers below return a flag's value when it was given on the command
// line and the configured value for key otherwise.

func stringSetting(cmd *cobra.Command, flag, key string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return viper.GetString(key)
}

func intSetting(cmd *cobra.Command, flag, key string) int {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	return viper.GetInt(key)
}

func uint64Setting(cmd *cobra.Command, flag, key string) uint64 {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		v, _ := cmd.Flags().GetUint64(flag)
		return v
	}
	return viper.GetUint64(key)
}

func float64Setting(cmd *cobra.Command, flag, key string) float64 {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		v, _ := cmd.Flags().GetFloat64(flag)
		return v
	}
	return viper.GetFloat64(key)
}

func durationSetting(cmd *cobra.Command, flag, key string) time.Duration {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		v, _ := cmd.Flags().GetDuration(flag)
		return v
	}
	return viper.GetDuration(key)
}
