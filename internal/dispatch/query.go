package dispatch

import "strings"

// QueryToKVP parses a query string of the form "k=v&k=v" into a
// string-to-string map. A key with no "=value" maps to the empty
// string; a key repeated later in the string overwrites its earlier
// value, matching a plain insertion into an associative container.
func QueryToKVP(query string) map[string]string {
	args := map[string]string{}
	if query == "" {
		return args
	}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		if eq := strings.IndexByte(pair, '='); eq >= 0 {
			args[pair[:eq]] = pair[eq+1:]
		} else {
			args[pair] = ""
		}
	}
	return args
}
