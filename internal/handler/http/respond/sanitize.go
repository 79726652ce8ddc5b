package respond

import "regexp"

var (
	// user:password@ in postgres and redis URLs
	dsnPasswordPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
	// password=... in key/value DSNs
	kvPasswordPattern = regexp.MustCompile(`(?i)(password|secret_key|secretkey)=([^\s&]+)`)
	bearerPattern     = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-_.=]+`)
	jwtPattern        = regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`)
	accessKeyPattern  = regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)
)

// SanitizeError returns the message of err with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	msg = kvPasswordPattern.ReplaceAllString(msg, "$1=****")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	msg = jwtPattern.ReplaceAllString(msg, "****")
	msg = accessKeyPattern.ReplaceAllString(msg, "AKIA****")
	return msg
}
