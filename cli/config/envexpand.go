// Package config handles lookahead.yaml loading for the CLI commands.
package config

import (
	"os"
	"regexp"
	"strings"
)

// envRef matches ${VAR} and ${VAR:-default}.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// ExpandEnv substitutes environment references in a config file body.
//
// ${VAR} becomes the value of VAR, or "" when VAR is unset. ${VAR:-default}
// falls back to default when VAR is unset or empty. Plain $VAR is left alone
// so tokens and header values may contain dollar signs.
func ExpandEnv(input string) string {
	if !strings.Contains(input, "${") {
		return input
	}

	var b strings.Builder
	last := 0
	for _, m := range envRef.FindAllStringSubmatchIndex(input, -1) {
		b.WriteString(input[last:m[0]])
		last = m[1]

		name := input[m[2]:m[3]]
		if value := os.Getenv(name); value != "" {
			b.WriteString(value)
			continue
		}
		if m[4] >= 0 {
			b.WriteString(strings.TrimPrefix(input[m[4]:m[5]], ":-"))
		}
	}
	b.WriteString(input[last:])
	return b.String()
}
