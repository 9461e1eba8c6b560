package config

import (
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/tree_viewer/pkg/export"
	"github.com/Dicklesworthstone/tree_viewer/pkg/logging"
)

// ValidationError is a single invalid setting
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting found by Validate
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks enums and sizes and returns every problem found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if !isValid(ValidLocales(), c.Locale) {
		add("locale", c.Locale, "must be one of "+strings.Join(ValidLocales(), ", "))
	}

	if err := c.LayoutOptions().Validate(); err != nil {
		add("layout", c.Layout, err.Error())
	}

	level := strings.ToUpper(c.Logging.Level)
	if level != "" && logging.ParseLevel(level) != level && level != "WARNING" {
		add("logging.level", c.Logging.Level, "must be one of "+strings.Join(logging.ValidLevels(), ", "))
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		add("server.addr", c.Server.Addr, "cannot be empty")
	}

	// Checked one entry at a time so each bad value gets its own error
	for _, f := range c.Export.Formats {
		if _, err := export.ParseFormats([]string{f}); err != nil {
			add("export.formats", f, err.Error())
		}
	}

	if c.Scripts.MaxDepth < 0 {
		add("scripts.max_depth", c.Scripts.MaxDepth, "cannot be negative")
	}

	return errs
}
