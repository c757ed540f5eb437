package config

import (
	"errors"
	"fmt"
)

type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Path)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	switch c.Model.Provider {
	case ModelOpenAI:
		if c.Model.APIKey == "" {
			return errors.New("openai model provider requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unsupported model provider %q", c.Model.Provider)
	}

	switch c.SMS.Provider {
	case SMSTwilio:
		if c.SMS.AccountSID == "" || c.SMS.AuthToken == "" || c.SMS.From == "" {
			return errors.New("twilio sms provider requires account sid, auth token and sender number")
		}
	case SMSLog:
	default:
		return fmt.Errorf("unsupported sms provider %q", c.SMS.Provider)
	}

	if c.Agent.MaxRounds <= 0 {
		return errors.New("agent.max_rounds must be > 0")
	}
	if c.Agent.Timeout <= 0 || c.Agent.ToolTimeout <= 0 {
		return errors.New("agent timeouts must be > 0")
	}

	return nil
}
