package http

import (
	"fmt"
	"regexp"
)

// MaxLoggedResponseLength caps how much raw model output may appear in logs.
const MaxLoggedResponseLength = 200

// TruncateForLogging trims model output for log lines. Responses carry user
// source code, so only a short prefix is ever logged.
func TruncateForLogging(response string) string {
	if len(response) <= MaxLoggedResponseLength {
		return response
	}
	return response[:MaxLoggedResponseLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(response))
}

var urlSecretRes = []*regexp.Regexp{
	regexp.MustCompile(`key=[^&"\s]+`),
	regexp.MustCompile(`apiKey=[^&"\s]+`),
	regexp.MustCompile(`api_key=[^&"\s]+`),
	regexp.MustCompile(`token=[^&"\s]+`),
	regexp.MustCompile(`access_token=[^&"\s]+`),
}

var urlSecretNames = []string{"key", "apiKey", "api_key", "token", "access_token"}

// RedactURLSecrets redacts credential query parameters from URLs in error
// messages. The Gemini API carries its key as ?key=, which would otherwise
// leak into error output verbatim.
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}
	for i, re := range urlSecretRes {
		text = re.ReplaceAllString(text, urlSecretNames[i]+"=[REDACTED]")
	}
	return text
}
