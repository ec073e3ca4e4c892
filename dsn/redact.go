package dsn

import (
	"net/url"
	"regexp"
	"strings"
)

const mask = "xxxxx"

// keyword DSNs: password=secret or password='s e c'
var keywordPassword = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)

// Redact masks the password in URL DSNs (postgres://u:p@h/db), MySQL DSNs
// (u:p@tcp(h)/db) and keyword DSNs (host=h password=p).
func Redact(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), mask)
		}
		return u.String()
	}

	if keywordPassword.MatchString(dsn) {
		return keywordPassword.ReplaceAllString(dsn, "${1}"+mask)
	}

	if at := strings.LastIndex(dsn, "@"); at > 0 {
		creds := dsn[:at]
		if colon := strings.Index(creds, ":"); colon >= 0 {
			return creds[:colon+1] + mask + dsn[at:]
		}
	}
	return dsn
}
