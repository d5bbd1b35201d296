package respond

import "regexp"

var (
	// anthropicKeyPattern must run before openaiKeyPattern.
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)

	// credentials in postgres:// and redis:// URLs, user may be empty
	urlPasswordPattern = regexp.MustCompile(`://([^:/@]*):([^@/]+)@`)
)

// SanitizeError masks API keys and URL passwords in err's message.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = urlPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
