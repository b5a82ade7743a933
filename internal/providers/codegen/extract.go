package codegen

import "strings"

// ExtractCode returns the body of the first fenced code block in reply, or
// the whole reply when there is none. An unterminated fence runs to the end
// of the reply.
func ExtractCode(reply string) string {
	start := strings.Index(reply, "```")
	if start < 0 {
		return strings.TrimSpace(reply)
	}

	body := reply[start+3:]
	// Skip the info string (javascript, js, or anything else) on the fence line
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		info := strings.TrimSpace(body[:nl])
		if !strings.ContainsAny(info, " \t(){};=") {
			body = body[nl+1:]
		}
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
