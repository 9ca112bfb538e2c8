package appblock

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrMissingConfig  = errors.New("missing script_url or tag_name")
	ErrInvalidTagName = errors.New("invalid custom element tag name")
)

// Custom element names are lower case and contain a hyphen.
var tagNamePattern = regexp.MustCompile(`^[a-z][a-z0-9._]*(-[a-z0-9._]*)+$`)

// Config is the app block section configuration.
type Config struct {
	AppID     string
	ScriptURL string
	TagName   string
	Props     map[string]any
}

// ConfigFromProps reads the app_id, script_url, tag_name and props settings.
func ConfigFromProps(props map[string]any) Config {
	cfg := Config{
		AppID:     stringProp(props, "app_id"),
		ScriptURL: stringProp(props, "script_url"),
		TagName:   stringProp(props, "tag_name"),
	}
	if nested, ok := props["props"].(map[string]any); ok {
		cfg.Props = nested
	}
	return cfg
}

// Validate checks the configuration needed to load the element.
func (c Config) Validate() error {
	if c.ScriptURL == "" || c.TagName == "" {
		return ErrMissingConfig
	}
	if !tagNamePattern.MatchString(c.TagName) {
		return ErrInvalidTagName
	}
	return nil
}

func stringProp(props map[string]any, key string) string {
	value, _ := props[key].(string)
	return strings.TrimSpace(value)
}
