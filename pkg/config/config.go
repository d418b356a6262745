package config

import (
	"errors"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/moyu-x/fotix/internal"
)

type Config struct {
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Scanner struct {
		FollowSymlinks bool     `mapstructure:"follow_symlinks"`
		IncludeHidden  bool     `mapstructure:"include_hidden"`
		MinSize        int64    `mapstructure:"min_size"`
		IncludeEmpty   bool     `mapstructure:"include_empty"`
		Kinds          []string `mapstructure:"kinds"`
	} `mapstructure:"scanner"`
	Performance struct {
		Workers int `mapstructure:"workers"`
	} `mapstructure:"performance"`
	Selector struct {
		ExtraPatterns []string `mapstructure:"extra_patterns"`
	} `mapstructure:"selector"`
	Backup struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"backup"`
	Logging struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"logging"`
}

// Load 读取配置文件，cfgFile 为空时按默认路径查找 config.yaml
// 找不到配置文件不视为错误
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("$HOME/.fotix")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/fotix")
	}

	v.SetEnvPrefix("FOTIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.Performance.Workers <= 0 {
		c.Performance.Workers = runtime.NumCPU()
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", internal.DefaultDatabasePath)
	v.SetDefault("scanner.follow_symlinks", false)
	v.SetDefault("scanner.include_hidden", true)
	v.SetDefault("scanner.min_size", 1)
	v.SetDefault("scanner.include_empty", false)
	v.SetDefault("scanner.kinds", []string{})
	v.SetDefault("performance.workers", runtime.NumCPU())
	v.SetDefault("selector.extra_patterns", []string{})
	v.SetDefault("backup.dir", internal.DefaultBackupDir)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
}
