// Package gate screens generated code for forbidden capabilities before it
// reaches the sandbox.
//
// Screening is a fast pre-filter. The sandbox policy remains the
// enforcement point; a script that passes the gate can still fail at
// runtime when it touches a denied global.
package gate

import (
	"fmt"
	"regexp"
)

// Verdict is the outcome of screening one script
type Verdict struct {
	Approved   bool   `json:"approved"`
	Capability string `json:"capability,omitempty"`
	Pattern    string `json:"pattern,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type rule struct {
	capability string
	pattern    string
	re         *regexp.Regexp
}

// loads matches require("m"), import("m") and `from "m"` for the modules
// in alternation mod, with or without the node: scheme
func loads(mod string) string {
	q := `["'` + "`" + `]`
	return `(\b(require|import)\s*\(\s*|\bfrom\s*)` + q + `(node:)?(` + mod + `)` + q
}

// Patterns are case-insensitive and tolerate whitespace around the
// tokens they look for. Loads of known modules come first so the verdict
// names the capability rather than the import.
var rules = compile([]struct{ capability, pattern string }{
	{"filesystem", loads(`fs|fs/promises|path`)},
	{"process", loads(`child_process|os|worker_threads|cluster|vm`)},
	{"network-raw", loads(`net|dgram|tls|http|https|http2`)},
	{"module-import", `\brequire\s*\(`},
	{"module-import", `\bimport\s*\(`},
	{"module-import", `(?m)^\s*import\s+[\w*{]`},
	{"module-import", `\bmodule\s*\.\s*exports\b`},
	{"filesystem", `\bfs\s*\.\s*\w+`},
	{"filesystem", `\b(read|write|append)File(Sync)?\s*\(`},
	{"filesystem", `\bfile:\s*//`},
	{"process", `\bprocess\s*\.\s*(exit|env|argv|kill|binding|mainModule)\b`},
	{"process", `\bchild_process\b`},
	{"process", `\b(Deno|Bun)\s*\.\s*\w+`},
	{"process", `\bnew\s+Worker\s*\(`},
	{"network-raw", `\bnew\s+WebSocket\s*\(`},
	{"network-raw", `\bXMLHttpRequest\b`},
	{"network-raw", `\bnet\s*\.\s*(connect|createConnection|createServer)\s*\(`},
	{"dynamic-eval", `\beval\s*\(`},
	{"dynamic-eval", `\bnew\s+Function\s*\(`},
	{"dynamic-eval", `\bFunction\s*\(\s*["'` + "`" + `]`},
	{"dynamic-eval", `\.\s*constructor\s*\(\s*["'` + "`" + `]`},
	{"dynamic-eval", `\bset(Timeout|Interval)\s*\(\s*["'` + "`" + `]`},
	{"introspection", `\bReflect\s*\.\s*\w+`},
	{"introspection", `\bnew\s+Proxy\s*\(`},
	{"introspection", `__proto__`},
	{"introspection", `\bObject\s*\.\s*setPrototypeOf\s*\(`},
	{"interactive", `\b(prompt|alert|confirm)\s*\(`},
	{"interactive", `\bdebugger\b`},
})

func compile(specs []struct{ capability, pattern string }) []rule {
	out := make([]rule, 0, len(specs))
	for _, s := range specs {
		out = append(out, rule{
			capability: s.capability,
			pattern:    s.pattern,
			re:         regexp.MustCompile(`(?i)` + s.pattern),
		})
	}
	return out
}

// Screen checks code against the forbidden-capability table. The first
// match rejects; code matching nothing is approved.
func Screen(code string) Verdict {
	for _, r := range rules {
		if r.re.MatchString(code) {
			return Verdict{
				Capability: r.capability,
				Pattern:    r.pattern,
				Reason:     fmt.Sprintf("forbidden capability %s: matched %s", r.capability, r.pattern),
			}
		}
	}
	return Verdict{Approved: true}
}

// Capabilities lists the capability names the gate screens for, in table
// order without repeats
func Capabilities() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rules {
		if !seen[r.capability] {
			seen[r.capability] = true
			out = append(out, r.capability)
		}
	}
	return out
}

// Gate adapts Screen to the orchestrator's gate interface
type Gate struct{}

// New returns the static gate
func New() Gate { return Gate{} }

// Screen checks code against the forbidden-capability table
func (Gate) Screen(code string) Verdict { return Screen(code) }
