package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Travis-Britz/cfddns"
)

// DefaultSettingsFile is the settings file read when no path is given.
const DefaultSettingsFile = "cloudflare.settings"

// ConfigError is returned when the settings are missing, unreadable or invalid.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %s", e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Settings holds the Cloudflare credentials and the domain to keep updated.
//
// The file is YAML; the JSON settings files written for earlier deployments parse unchanged.
type Settings struct {
	APIKey    string `yaml:"apiKey,omitempty"`
	AuthEmail string `yaml:"authEmail,omitempty"`
	APIToken  string `yaml:"apiToken,omitempty"`
	Domain    string `yaml:"appDomain"`
}

// Credentials converts the settings into provider credentials.
func (s Settings) Credentials() cfddns.Credentials {
	return cfddns.Credentials{
		APIKey:   s.APIKey,
		Email:    s.AuthEmail,
		APIToken: s.APIToken,
	}
}

// Validate checks that a domain and a usable set of credentials are present.
func (s Settings) Validate() error {
	if s.Domain == "" {
		return errors.New("domain cannot be empty")
	}
	if !strings.Contains(s.Domain, ".") {
		return errors.New("domain must have at least one dot")
	}
	if s.APIToken == "" && (s.APIKey == "" || s.AuthEmail == "") {
		return errors.New("either apiToken, or apiKey and authEmail, must be set")
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references; a bare $ is left as is.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

var envOverrides = []struct {
	name  string
	field func(*Settings) *string
}{
	{"CF_API_KEY", func(s *Settings) *string { return &s.APIKey }},
	{"CF_AUTH_EMAIL", func(s *Settings) *string { return &s.AuthEmail }},
	{"CF_API_TOKEN", func(s *Settings) *string { return &s.APIToken }},
	{"CF_DOMAIN", func(s *Settings) *string { return &s.Domain }},
}

// LoadSettings reads the settings file at path, expands ${ENV_VAR} references in its values
// (plain $NAME is left alone)
// and applies the CF_* environment overrides.
//
// A missing file is only an error when the environment does not supply complete settings.
// The file must not be readable by group or others.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		path = DefaultSettingsFile
	}
	var s Settings

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// environment only
	case err != nil:
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("reading settings file: %w", err)}
	default:
		if err := VerifyPermissions(path); err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("parsing settings file: %w", err)}
		}
		for _, o := range envOverrides {
			f := o.field(&s)
			*f = expandEnv(*f)
		}
	}

	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.field(&s) = v
		}
	}

	if err := s.Validate(); err != nil {
		if data == nil {
			err = fmt.Errorf("settings file not found and environment incomplete: %w", err)
		}
		return nil, &ConfigError{Path: path, Err: err}
	}
	return &s, nil
}

// WriteSettings creates a new settings file readable only by its owner.
// It refuses to overwrite an existing file.
func WriteSettings(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("unable to create \"%s\": %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing \"%s\": %w", path, err)
	}
	return f.Close()
}

// VerifyPermissions rejects credential files that group or others can access.
func VerifyPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking settings file permissions: %w", err)
	}

	perms := info.Mode().Perm()
	// Error messages will state that we want 0600,
	// but we'll also accept 0400 which is even more restricted.
	// The file might be provided by some secrets managing software as readonly.
	if perms != 0600 && perms != 0400 {
		return fmt.Errorf("invalid permissions for \"%s\": expected file permissions \"-rw-------\"; found \"%s\"", path, fs.FileMode(perms))
	}
	return nil
}
