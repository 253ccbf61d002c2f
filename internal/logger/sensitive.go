package logger

import "regexp"

// sensitivePatterns match credentials that may appear in rendered
// configuration or connection errors. Group 1 is kept, the secret is replaced.
var sensitivePatterns = []*regexp.Regexp{
	// password: secret, dsn=https://key@sentry.io/1
	regexp.MustCompile(`(?i)((passw(or)?d|secret|token|dsn)["']?\s*[:=]\s*["']?)([^"'\s;,]{3,})`),
	// user:password@tcp(host:3306)
	regexp.MustCompile(`([^\s:/@]+:)([^\s@]+)(@tcp\()`),
}

const redacted = "[REDACTED]"

// RedactSensitiveData replaces credentials in input with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}
	input = sensitivePatterns[0].ReplaceAllString(input, "${1}"+redacted)
	input = sensitivePatterns[1].ReplaceAllString(input, "${1}"+redacted+"${3}")
	return input
}
