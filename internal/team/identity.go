package team

import "strings"

// IdentityMap maps source-control logins to chat handles. Logins compare case-insensitively.
type IdentityMap map[string]string

func NewIdentityMap(raw map[string]string) IdentityMap {
	m := make(IdentityMap, len(raw))
	for login, handle := range raw {
		login, handle = strings.TrimSpace(login), strings.TrimSpace(handle)
		if login == "" || handle == "" {
			continue
		}
		m[strings.ToLower(login)] = handle
	}

	return m
}

// Lookup reports the handle for login. A missing entry is not an error.
func (m IdentityMap) Lookup(login string) (string, bool) {
	if login == "" {
		return "", false
	}
	handle, ok := m[strings.ToLower(login)]
	return handle, ok
}
