package config

import (
	"os"
	"path"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type SmtpConfig struct {
	Enable   bool   `yaml:"enable" json:"enable"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

type CheckoutConfig struct {
	// DrainInterval is the period of the demand-drain sweep in seconds.
	DrainInterval int `yaml:"drain_interval" json:"drain_interval"`
	// DrainWorkers caps concurrent back-in-stock notifications.
	DrainWorkers int `yaml:"drain_workers" json:"drain_workers"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system" json:"system"`
	Database DBConfig       `yaml:"database" json:"database"`
	Logger   LogConfig      `yaml:"logger" json:"logger"`
	Smtp     SmtpConfig     `yaml:"smtp" json:"smtp"`
	Checkout CheckoutConfig `yaml:"checkout" json:"checkout"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "StoreCore",
		Location: "Asia/Shanghai",
		Workdir:  "/var/storecore",
		Debug:    true,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "storecore_v1",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/storecore/storecore.log",
	},
	Smtp: SmtpConfig{
		Enable: false,
		Host:   "127.0.0.1",
		Port:   25,
		From:   "noreply@storecore.local",
	},
	Checkout: CheckoutConfig{
		DrainInterval: 300,
		DrainWorkers:  8,
	},
}

func setEnvValue(name string, f func(v string)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue)
	}
}

func setEnvBoolValue(name string, f func(v bool)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue == "true" || evalue == "1" || evalue == "on")
	}
}

func setEnvIntValue(name string, f func(v int)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(cast.ToInt(evalue))
	}
}

// LoadConfig loads the configuration file and applies environment overrides.
// A missing file is not an error, defaults are used instead.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("STORECORE_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvBoolValue("STORECORE_SYSTEM_DEBUG", func(v bool) { cfg.System.Debug = v })
	setEnvValue("STORECORE_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("STORECORE_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvIntValue("STORECORE_DB_PORT", func(v int) { cfg.Database.Port = v })
	setEnvValue("STORECORE_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("STORECORE_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("STORECORE_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvValue("STORECORE_SMTP_HOST", func(v string) { cfg.Smtp.Host = v })
	setEnvIntValue("STORECORE_SMTP_PORT", func(v int) { cfg.Smtp.Port = v })
	setEnvValue("STORECORE_SMTP_USER", func(v string) { cfg.Smtp.Username = v })
	setEnvValue("STORECORE_SMTP_PWD", func(v string) { cfg.Smtp.Password = v })
	setEnvValue("STORECORE_SMTP_FROM", func(v string) { cfg.Smtp.From = v })
	setEnvBoolValue("STORECORE_SMTP_ENABLE", func(v bool) { cfg.Smtp.Enable = v })
	setEnvIntValue("STORECORE_CHECKOUT_DRAIN_INTERVAL", func(v int) { cfg.Checkout.DrainInterval = v })

	cfg.initDirs()
	return cfg
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(path.Join(c.System.Workdir, "data"), 0o755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "logs"), 0o755)
}
