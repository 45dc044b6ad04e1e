package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateIntake(); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStorage() error {
	switch c.Storage.Driver {
	case "json", "sqlite":
		return nil
	default:
		return fmt.Errorf("storage.driver must be \"json\" or \"sqlite\", got %q", c.Storage.Driver)
	}
}

func (c *Config) validateIntake() error {
	if c.Intake.MinImages < defaultMinImages {
		return fmt.Errorf("intake.min_images must be at least %d, got %d", defaultMinImages, c.Intake.MinImages)
	}
	if c.Intake.MaxImages < c.Intake.MinImages {
		return fmt.Errorf("intake.max_images (%d) must not be below intake.min_images (%d)", c.Intake.MaxImages, c.Intake.MinImages)
	}
	if c.Intake.MaxFileSizeMB <= 0 {
		return errors.New("intake.max_file_size_mb must be positive")
	}
	return nil
}

func (c *Config) validateMail() error {
	if c.Mail.Operator == "" {
		return errors.New("mail.operator is required. Set OPERATOR_EMAIL or edit the config file")
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("mail.port out of range: %d", c.Mail.Port)
	}
	if (c.Mail.Username == "") != (c.Mail.Password == "") {
		return errors.New("mail.username and mail.password must be set together (EMAIL_USER / EMAIL_PASS)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("logging.format must be one of auto, text, json; got %q", c.Logging.Format)
	}
	return nil
}
