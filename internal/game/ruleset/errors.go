package ruleset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports malformed static content. It is fatal at
// construction time.
type ConfigurationError struct {
	// Source names the offending table, file or skill.
	Source   string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// problems accumulates violations for one source.
type problems struct {
	source string
	list   []string
}

func (p *problems) addf(format string, args ...any) {
	p.list = append(p.list, fmt.Sprintf(format, args...))
}

func (p *problems) err() error {
	if len(p.list) == 0 {
		return nil
	}
	return &ConfigurationError{Source: p.source, Problems: p.list}
}

// NewConfigurationError builds a ConfigurationError for source.
func NewConfigurationError(source string, problem ...string) *ConfigurationError {
	return &ConfigurationError{Source: source, Problems: problem}
}
