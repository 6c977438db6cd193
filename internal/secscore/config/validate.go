package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var domainRe = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

var clouds = map[string]bool{"global": true, "usgov": true, "usgovdod": true, "china": true}

// ValidateTenant checks that s is a tenant GUID or a verified domain name
// such as contoso.onmicrosoft.com.
func ValidateTenant(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("tenant ID is required")
	}
	if _, err := uuid.Parse(s); err == nil && len(s) == 36 {
		return nil
	}
	if domainRe.MatchString(s) {
		return nil
	}
	return fmt.Errorf("invalid tenant %q (expected a GUID or a domain name)", s)
}

// ValidateClientID checks that s is an application (client) ID.
func ValidateClientID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("client ID is required")
	}
	if _, err := uuid.Parse(s); err != nil || len(s) != 36 {
		return fmt.Errorf("invalid client ID %q (expected xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx)", s)
	}
	return nil
}

// Validate checks the settings needed for a report run.
func (c *Config) Validate() error {
	var errs []error
	if err := ValidateTenant(c.TenantID); err != nil {
		errs = append(errs, err)
	}
	if c.Token == "" {
		if err := ValidateClientID(c.ClientID); err != nil {
			errs = append(errs, err)
		}
		if c.ClientSecret == "" {
			errs = append(errs, fmt.Errorf("client secret is required (set %s) unless %s is provided", c.secretEnv(), EnvToken))
		}
	}
	if !clouds[strings.ToLower(c.Cloud)] {
		errs = append(errs, fmt.Errorf("unknown cloud %q (expected global, usgov, usgovdod or china)", c.Cloud))
	}
	if len(c.Formats) == 0 {
		errs = append(errs, fmt.Errorf("at least one output format is required"))
	}
	for _, f := range c.Formats {
		if !knownFormats[strings.ToLower(f)] {
			errs = append(errs, fmt.Errorf("unknown output format %q", f))
		}
	}
	if c.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit must be positive, got %v", c.RateLimit))
	}
	return errors.Join(errs...)
}

func (c *Config) secretEnv() string {
	if c.ClientSecretEnv != "" {
		return c.ClientSecretEnv
	}
	return EnvClientSecret
}
