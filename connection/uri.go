package connection

import (
	"strings"

	"github.com/dwoolworth/mongoforge/apperr"
)

const redactedPassword = "*****"

// ValidateURI checks the coarse shape the spec requires of a saved
// connection URI: one of the two recognized schemes, followed by a host
// segment. It does not attempt full RFC 3986 validation — the driver itself
// is the final authority once Connect is attempted.
func ValidateURI(uri string) error {
	rest, ok := stripScheme(uri)
	if !ok {
		return apperr.New(apperr.Parse, "uri must start with mongodb:// or mongodb+srv://")
	}
	if host := hostFromRest(rest); host == "" {
		return apperr.New(apperr.Parse, "uri must contain a host segment")
	}
	return nil
}

func stripScheme(uri string) (string, bool) {
	for _, scheme := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(uri, scheme) {
			return uri[len(scheme):], true
		}
	}
	return "", false
}

// hostFromRest extracts the host portion after an optional user[:pass]@,
// stopping at the first ':', '/' or '?'.
func hostFromRest(rest string) string {
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	end := len(rest)
	for _, sep := range []byte{':', '/', '?'} {
		if i := strings.IndexByte(rest, sep); i >= 0 && i < end {
			end = i
		}
	}
	return rest[:end]
}

// Host returns the host segment of a saved connection URI (empty string if
// the URI does not parse), for display in the connection list.
func Host(uri string) string {
	rest, ok := stripScheme(uri)
	if !ok {
		return ""
	}
	return hostFromRest(rest)
}

// Redact replaces a URI's embedded password, if any, with a fixed sentinel
// so saved connections can be displayed or logged safely.
func Redact(uri string) string {
	return InjectPassword(uri, redactedPassword)
}

// ExtractPassword returns the password embedded in uri's userinfo segment,
// if any. ok is false when the URI has no scheme, no userinfo, or no ':'
// inside the userinfo.
func ExtractPassword(uri string) (password string, ok bool) {
	rest, schemeOK := stripScheme(uri)
	if !schemeOK {
		return "", false
	}
	at := strings.Index(rest, "@")
	if at < 0 {
		return "", false
	}
	userinfo := rest[:at]
	colon := strings.IndexByte(userinfo, ':')
	if colon < 0 {
		return "", false
	}
	return userinfo[colon+1:], true
}

// InjectPassword returns uri with its userinfo password replaced by
// password. If uri has no userinfo or no ':' inside it, uri is returned
// unchanged; there is no username to attach a password to.
func InjectPassword(uri, password string) string {
	rest, ok := stripScheme(uri)
	if !ok {
		return uri
	}
	scheme := uri[:len(uri)-len(rest)]

	at := strings.Index(rest, "@")
	if at < 0 {
		return uri
	}
	userinfo := rest[:at]
	colon := strings.IndexByte(userinfo, ':')
	if colon < 0 {
		return uri
	}
	return scheme + userinfo[:colon+1] + password + rest[at:]
}
