// Package config loads streamvault.yaml.
package config

import (
	"os"
	"regexp"
	"strings"
)

// envRef matches ${NAME} and ${NAME:-fallback}. A bare $NAME is left alone.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// ExpandEnv substitutes environment references in a config document.
// Empty and unset variables take the fallback, or expand to nothing.
func ExpandEnv(doc string) string {
	var b strings.Builder
	last := 0
	for _, m := range envRef.FindAllStringSubmatchIndex(doc, -1) {
		b.WriteString(doc[last:m[0]])
		last = m[1]

		if v := os.Getenv(doc[m[2]:m[3]]); v != "" {
			b.WriteString(v)
		} else if m[4] >= 0 {
			b.WriteString(doc[m[4]+2 : m[5]])
		}
	}
	b.WriteString(doc[last:])
	return b.String()
}
