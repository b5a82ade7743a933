package sandbox

import "sort"

// Class is the capability class of a global name
type Class int

const (
	ClassUnknown Class = iota

	// Allowed classes
	ClassPrimitive
	ClassContainer
	ClassHelper

	// Denied classes
	ClassFilesystem
	ClassProcess
	ClassNetworkRaw
	ClassNetworkUnsafe
	ClassSerialization
	ClassHashing
	ClassTimeLocale
	ClassIntrospection
	ClassDynamicEval
	ClassInteractive
)

var classNames = map[Class]string{
	ClassUnknown:       "unknown",
	ClassPrimitive:     "primitive",
	ClassContainer:     "container",
	ClassHelper:        "helper",
	ClassFilesystem:    "filesystem",
	ClassProcess:       "process",
	ClassNetworkRaw:    "network-raw",
	ClassNetworkUnsafe: "network-unsafe",
	ClassSerialization: "serialization",
	ClassHashing:       "hashing",
	ClassTimeLocale:    "time-locale",
	ClassIntrospection: "introspection",
	ClassDynamicEval:   "dynamic-eval",
	ClassInteractive:   "interactive",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "unknown"
}

// Allowed reports whether names of this class may be used by generated code
func (c Class) Allowed() bool {
	return c == ClassPrimitive || c == ClassContainer || c == ClassHelper
}

// Helper names injected into every execution scope
const (
	HelperFetch         = "fetch"
	HelperRender        = "render"
	HelperParseHTML     = "parseHTML"
	HelperFindAll       = "findAll"
	HelperExtractEmails = "extractEmails"
	HelperExtractPhones = "extractPhones"
	HelperSleep         = "sleep"
	HelperConsole       = "console"
	ScopeResults        = "results"
	ScopeURL            = "url"
)

// denyTable is consulted before allowTable. Neither table is reachable for
// writing outside this file.
var denyTable = map[string]Class{
	"require":              ClassFilesystem,
	"import":               ClassFilesystem,
	"module":               ClassFilesystem,
	"exports":              ClassFilesystem,
	"fs":                   ClassFilesystem,
	"readFile":             ClassFilesystem,
	"writeFile":            ClassFilesystem,
	"open":                 ClassFilesystem,
	"process":              ClassProcess,
	"child_process":        ClassProcess,
	"os":                   ClassProcess,
	"Deno":                 ClassProcess,
	"Bun":                  ClassProcess,
	"exit":                 ClassProcess,
	"quit":                 ClassProcess,
	"Worker":               ClassProcess,
	"net":                  ClassNetworkRaw,
	"socket":               ClassNetworkRaw,
	"WebSocket":            ClassNetworkRaw,
	"http":                 ClassNetworkUnsafe,
	"https":                ClassNetworkUnsafe,
	"XMLHttpRequest":       ClassNetworkUnsafe,
	"JSON":                 ClassSerialization,
	"ArrayBuffer":          ClassSerialization,
	"SharedArrayBuffer":    ClassSerialization,
	"DataView":             ClassSerialization,
	"Int8Array":            ClassSerialization,
	"Uint8Array":           ClassSerialization,
	"Uint8ClampedArray":    ClassSerialization,
	"Int16Array":           ClassSerialization,
	"Uint16Array":          ClassSerialization,
	"Int32Array":           ClassSerialization,
	"Uint32Array":          ClassSerialization,
	"Float32Array":         ClassSerialization,
	"Float64Array":         ClassSerialization,
	"BigInt64Array":        ClassSerialization,
	"BigUint64Array":       ClassSerialization,
	"Atomics":              ClassSerialization,
	"escape":               ClassSerialization,
	"unescape":             ClassSerialization,
	"crypto":               ClassHashing,
	"Date":                 ClassTimeLocale,
	"Intl":                 ClassTimeLocale,
	"Reflect":              ClassIntrospection,
	"Proxy":                ClassIntrospection,
	"GoError":              ClassIntrospection,
	"WeakRef":              ClassIntrospection,
	"FinalizationRegistry": ClassIntrospection,
	"eval":                 ClassDynamicEval,
	"Function":             ClassDynamicEval,
	"AsyncFunction":        ClassDynamicEval,
	"GeneratorFunction":    ClassDynamicEval,
	"Promise":              ClassDynamicEval,
	"prompt":               ClassInteractive,
	"alert":                ClassInteractive,
	"confirm":              ClassInteractive,
	"input":                ClassInteractive,
	"debugger":             ClassInteractive,
}

var allowTable = map[string]Class{
	"undefined":          ClassPrimitive,
	"NaN":                ClassPrimitive,
	"Infinity":           ClassPrimitive,
	"globalThis":         ClassPrimitive,
	"Object":             ClassPrimitive,
	"String":             ClassPrimitive,
	"Number":             ClassPrimitive,
	"Boolean":            ClassPrimitive,
	"Symbol":             ClassPrimitive,
	"BigInt":             ClassPrimitive,
	"RegExp":             ClassPrimitive,
	"Math":               ClassPrimitive,
	"isNaN":              ClassPrimitive,
	"isFinite":           ClassPrimitive,
	"parseInt":           ClassPrimitive,
	"parseFloat":         ClassPrimitive,
	"encodeURI":          ClassPrimitive,
	"decodeURI":          ClassPrimitive,
	"encodeURIComponent": ClassPrimitive,
	"decodeURIComponent": ClassPrimitive,
	"Error":              ClassPrimitive,
	"TypeError":          ClassPrimitive,
	"RangeError":         ClassPrimitive,
	"SyntaxError":        ClassPrimitive,
	"ReferenceError":     ClassPrimitive,
	"URIError":           ClassPrimitive,
	"EvalError":          ClassPrimitive,
	"AggregateError":     ClassPrimitive,
	"Array":              ClassContainer,
	"Map":                ClassContainer,
	"Set":                ClassContainer,
	"WeakMap":            ClassContainer,
	"WeakSet":            ClassContainer,
	HelperFetch:          ClassHelper,
	HelperRender:         ClassHelper,
	HelperParseHTML:      ClassHelper,
	HelperFindAll:        ClassHelper,
	HelperExtractEmails:  ClassHelper,
	HelperExtractPhones:  ClassHelper,
	HelperSleep:          ClassHelper,
	HelperConsole:        ClassHelper,
	ScopeResults:         ClassHelper,
	ScopeURL:             ClassHelper,
}

// Classify returns the capability class of name. Deny entries win over allow
// entries; names in neither table are ClassUnknown.
func Classify(name string) Class {
	if c, ok := denyTable[name]; ok {
		return c
	}
	if c, ok := allowTable[name]; ok {
		return c
	}
	return ClassUnknown
}

// Authorize reports whether generated code may use name. Anything not
// explicitly allowed is denied.
func Authorize(name string) bool {
	return Classify(name).Allowed()
}

// Helpers returns the sorted helper names available in every scope
func Helpers() []string {
	var names []string
	for name, c := range allowTable {
		if c == ClassHelper {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
