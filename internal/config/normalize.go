package config

import (
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() {
	c.applyEnv()

	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaultStoreDriver
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		c.Storage.Path = defaultStorePath
	}
	if strings.TrimSpace(c.Storage.UploadsDir) == "" {
		c.Storage.UploadsDir = defaultUploadsDir
	}

	c.Intake.CodePrefix = strings.TrimSpace(c.Intake.CodePrefix)
	if c.Intake.CodePrefix == "" {
		c.Intake.CodePrefix = defaultCodePrefix
	}

	c.Mail.Username = strings.TrimSpace(c.Mail.Username)
	c.Mail.Operator = strings.TrimSpace(c.Mail.Operator)
	if c.Mail.From == "" {
		c.Mail.From = c.Mail.Username
	}
	if c.Mail.TimeoutSeconds <= 0 {
		c.Mail.TimeoutSeconds = defaultMailTimeoutSec
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

// applyEnv lets the environment (and a .env file loaded by the CLI) override
// the file. EMAIL_USER and EMAIL_PASS keep the names existing deployments use.
func (c *Config) applyEnv() {
	setString(&c.Mail.Username, "EMAIL_USER")
	setString(&c.Mail.Password, "EMAIL_PASS")
	setString(&c.Mail.Host, "EMAIL_HOST")
	setInt(&c.Mail.Port, "EMAIL_PORT")
	setString(&c.Mail.From, "EMAIL_FROM")
	setString(&c.Mail.Operator, "OPERATOR_EMAIL")
	setString(&c.Server.Bind, "CERTIFY_BIND")
	setString(&c.Storage.Driver, "CERTIFY_STORE_DRIVER")
	setString(&c.Storage.Path, "CERTIFY_STORE_PATH")
	setString(&c.Storage.UploadsDir, "CERTIFY_UPLOADS_DIR")
	setString(&c.Logging.Level, "CERTIFY_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return
	}
	*dst = n
}
