package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix      = "INHERIT"
	configFileName = ".inheritctl"

	cfgKeyManifest      = "manifest"
	cfgKeyLogLevel      = "log.level"
	cfgKeyLogProduction = "log.production"
	cfgKeyInventoryPath = "inventory.path"
	cfgKeyMatcherEngine = "matcher.engine"

	defaultLogLevel      = "warn"
	defaultInventoryPath = "inventory.db"
)

// loadConfig reads configFile, or .inheritctl.yaml from the working
// directory when configFile is empty. A missing default file is not an
// error. Environment variables override the file: INHERIT_LOG_LEVEL sets
// log.level.
func loadConfig(v *viper.Viper, configFile string) error {
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLogProduction, false)
	v.SetDefault(cfgKeyInventoryPath, defaultInventoryPath)
	v.SetDefault(cfgKeyMatcherEngine, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
