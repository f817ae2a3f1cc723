/*
 * config.go, part of smirnoff.
 *
 * Copyright 2025 The smirnoff authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package config reads the settings of the smirnoff command from a YAML or TOML
//file and SMIRNOFF_ environment variables.
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

//EnvPrefix is the prefix of the environment variables read, e.g.
//SMIRNOFF_LOG_LEVEL for log.level.
const EnvPrefix = "SMIRNOFF"

//Config holds all the settings.
type Config struct {
	ForceField []string        `mapstructure:"forcefield"`
	Charges    ChargeConfig    `mapstructure:"charges"`
	BondOrders BondOrderConfig `mapstructure:"bond_orders"`
	XTB        XTBConfig       `mapstructure:"xtb"`
	Log        LogConfig       `mapstructure:"log"`
	Output     OutputConfig    `mapstructure:"output"`
}

//ChargeConfig sets where partial charges come from. Aliases maps the method
//names a force field asks for to the methods actually run.
type ChargeConfig struct {
	Method   string            `mapstructure:"method"`
	FromFile string            `mapstructure:"from_file"`
	Aliases  map[string]string `mapstructure:"aliases"`
}

//BondOrderConfig sets where fractional bond orders come from.
type BondOrderConfig struct {
	Method   string `mapstructure:"method"`
	FromFile string `mapstructure:"from_file"`
}

//XTBConfig sets up the xtb program, used for the methods aliased to "xtb".
type XTBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Command string `mapstructure:"command"`
	CPUs    int    `mapstructure:"cpus"`
	WorkDir string `mapstructure:"workdir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type OutputConfig struct {
	Snapshot string `mapstructure:"snapshot"`
	Top      string `mapstructure:"top"`
	Table    bool   `mapstructure:"table"`
}

//SetDefaults configures default values for all the settings.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("forcefield", []string{})

	v.SetDefault("charges.method", "")
	v.SetDefault("charges.from_file", "")
	v.SetDefault("charges.aliases", map[string]string{
		"am1bcc":       "xtb",
		"am1-mulliken": "xtb",
	})

	v.SetDefault("bond_orders.method", "")
	v.SetDefault("bond_orders.from_file", "")

	v.SetDefault("xtb.enabled", false)
	v.SetDefault("xtb.command", "xtb")
	v.SetDefault("xtb.cpus", 1)
	v.SetDefault("xtb.workdir", "")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.json", false)

	v.SetDefault("output.snapshot", "")
	v.SetDefault("output.table", true)
}

//New returns a viper instance with the defaults set and the environment
//variables bound.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

//Load reads the configuration file path, if not empty, over the defaults and
//under the environment. The format is taken from the extension.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}
	return LoadWithViper(v)
}

//LoadWithViper loads and validates the configuration from a provided viper
//instance.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

//Validate checks the values that can be checked without running anything.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(err, "log.level")
	}
	if c.XTB.CPUs < 1 {
		return errors.Newf("xtb.cpus must be at least 1, not %d", c.XTB.CPUs)
	}
	for alias, target := range c.Charges.Aliases {
		if target == "" {
			return errors.Newf("charges.aliases: empty target for %s", alias)
		}
	}
	return nil
}
