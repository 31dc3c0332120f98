package apps

import (
	"strconv"
	"strings"
)

// ParseScopeUnit extracts the application identifier from a systemd
// application scope unit name. Scope units follow the desktop integration
// convention app[-<launcher>]-<ApplicationID>-<RANDOM>.scope, where literal
// dashes inside the identifier are escaped as \x2d.
func ParseScopeUnit(unit string) (string, bool) {
	name, ok := strings.CutSuffix(unit, ".scope")
	if !ok {
		return "", false
	}
	name, ok = strings.CutPrefix(name, "app-")
	if !ok {
		return "", false
	}

	tokens := strings.Split(name, "-")
	// Drop the trailing random suffix, then the identifier is the last token;
	// anything before it is the launcher.
	if len(tokens) >= 2 {
		tokens = tokens[:len(tokens)-1]
	}
	id := unescapeUnitName(tokens[len(tokens)-1])
	if id == "" {
		return "", false
	}
	return id, true
}

// identifierFromCgroup derives the application identifier from the contents
// of a /proc/<pid>/cgroup file. Only the unified (v2) hierarchy entry is
// considered.
func identifierFromCgroup(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		path, ok := strings.CutPrefix(strings.TrimSpace(line), "0::")
		if !ok {
			continue
		}
		unit := path[strings.LastIndexByte(path, '/')+1:]
		if id, ok := ParseScopeUnit(unit); ok {
			return id
		}
	}
	return ""
}

// unescapeUnitName reverses systemd unit name escaping (\xXX sequences).
func unescapeUnitName(name string) string {
	if !strings.Contains(name, `\x`) {
		return name
	}
	var out strings.Builder
	out.Grow(len(name))
	for i := 0; i < len(name); {
		if name[i] == '\\' && i+3 < len(name) && name[i+1] == 'x' {
			if code, err := strconv.ParseUint(name[i+2:i+4], 16, 8); err == nil {
				out.WriteByte(byte(code))
				i += 4
				continue
			}
		}
		out.WriteByte(name[i])
		i++
	}
	return out.String()
}
