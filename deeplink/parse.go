// Package deeplink turns OS-delivered invite URLs into pending invite payloads
// and keeps the most recent one in local storage until it can be claimed.
package deeplink

import (
	"net/url"
	"strings"
)

// InviteHost is the host of custom-scheme invite links, as in drynks://invite/ABC12345.
const InviteHost = "invite"

// Payload is what an invite link carries. ResourceID and InviterID are optional.
type Payload struct {
	Code       string `json:"code"`
	ResourceID string `json:"resourceId,omitempty"`
	InviterID  string `json:"inviterId,omitempty"`
}

// Parse extracts an invite payload from raw. It accepts, in order:
//
//	<scheme>://invite/<code>?d=<resourceId>&inviter=<id>   (code may also be ?code= or ?invite=)
//	https://<host>/.../invite/<code>?d=<resourceId>
//	any URL with a ?code= or ?invite= query parameter
//
// It reports false for anything it cannot parse or that carries no code.
func Parse(raw string) (Payload, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Payload{}, false
	}
	q := u.Query()

	code := ""
	switch {
	case isCustomScheme(u.Scheme) && strings.EqualFold(u.Host, InviteHost):
		code = firstSegment(u.Path)
		if code == "" {
			code = queryCode(q)
		}
	default:
		code = invitePathCode(u.Path)
		if code == "" {
			code = queryCode(q)
		}
	}
	if code == "" {
		return Payload{}, false
	}

	return Payload{
		Code:       code,
		ResourceID: strings.TrimSpace(q.Get("d")),
		InviterID:  strings.TrimSpace(q.Get("inviter")),
	}, true
}

func isCustomScheme(scheme string) bool {
	if scheme == "" {
		return false
	}
	s := strings.ToLower(scheme)
	return s != "http" && s != "https"
}

func firstSegment(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			return seg
		}
	}
	return ""
}

// invitePathCode returns the segment following an "invite" segment.
func invitePathCode(path string) string {
	segs := strings.Split(path, "/")
	for i := 0; i < len(segs)-1; i++ {
		if !strings.EqualFold(segs[i], InviteHost) {
			continue
		}
		if code := strings.TrimSpace(segs[i+1]); code != "" {
			return code
		}
	}
	return ""
}

func queryCode(q url.Values) string {
	if code := strings.TrimSpace(q.Get("code")); code != "" {
		return code
	}
	return strings.TrimSpace(q.Get("invite"))
}

// UniversalURL builds https://<host>/invite/<code>?d=<resourceID>. It needs no
// network and is the share URL of last resort.
func UniversalURL(host, code, resourceID string) string {
	u := url.URL{
		Scheme: "https",
		Host:   host,
		Path:   "/" + InviteHost + "/" + code,
	}
	if resourceID != "" {
		u.RawQuery = url.Values{"d": {resourceID}}.Encode()
	}
	return u.String()
}

// SchemeURL builds <scheme>://invite/<code> with the optional d and inviter parameters.
func SchemeURL(scheme string, p Payload) string {
	u := url.URL{
		Scheme: scheme,
		Host:   InviteHost,
		Path:   "/" + p.Code,
	}
	q := url.Values{}
	if p.ResourceID != "" {
		q.Set("d", p.ResourceID)
	}
	if p.InviterID != "" {
		q.Set("inviter", p.InviterID)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
