package sandbox

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/PromptScraper/internal/providers/scraper"
)

// installScope binds results, url, console and the helper functions.
// Every binding is checked against the policy before it is exposed and
// every helper checks again when it is called.
func (r *Runtime) installScope(ctx context.Context, results *goja.Object, pageURL string) error {
	bindings := []struct {
		name  string
		value any
	}{
		{ScopeResults, results},
		{ScopeURL, pageURL},
		{HelperConsole, r.consoleObject()},
		{HelperFetch, r.guard(HelperFetch, r.fetchFunc(ctx, pageURL))},
		{HelperRender, r.guard(HelperRender, r.renderFunc(ctx, pageURL))},
		{HelperParseHTML, r.guard(HelperParseHTML, r.parseFunc())},
		{HelperFindAll, r.guard(HelperFindAll, r.findAllFunc())},
		{HelperExtractEmails, r.guard(HelperExtractEmails, r.textFunc(r.services.Toolkit.ExtractEmails))},
		{HelperExtractPhones, r.guard(HelperExtractPhones, r.textFunc(r.services.Toolkit.ExtractPhones))},
		{HelperSleep, r.guard(HelperSleep, r.sleepFunc(ctx))},
	}

	for _, b := range bindings {
		if !Authorize(b.name) {
			return fmt.Errorf("%w: %s", ErrCapabilityDenied, b.name)
		}
		if err := r.vm.Set(b.name, b.value); err != nil {
			return fmt.Errorf("bind %s: %w", b.name, err)
		}
	}
	return nil
}

// helper must stay an alias: goja only calls the unnamed function type natively
type helper = func(call goja.FunctionCall) goja.Value

func (r *Runtime) guard(name string, fn helper) helper {
	return func(call goja.FunctionCall) goja.Value {
		if !Authorize(name) {
			panic(r.vm.NewTypeError("%s is not available", name))
		}
		return fn(call)
	}
}

func (r *Runtime) fetchFunc(ctx context.Context, base string) helper {
	return func(call goja.FunctionCall) goja.Value {
		if r.services.Fetcher == nil {
			panic(r.vm.NewTypeError("fetch is not available"))
		}
		target := resolve(base, call.Argument(0).String())
		html, err := r.services.Fetcher.FetchHTML(ctx, target)
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return r.vm.ToValue(html)
	}
}

func (r *Runtime) renderFunc(ctx context.Context, base string) helper {
	return func(call goja.FunctionCall) goja.Value {
		if r.services.Renderer == nil {
			panic(r.vm.NewTypeError("render is not available"))
		}
		target := resolve(base, call.Argument(0).String())
		html, err := r.services.Renderer.RenderHTML(ctx, target)
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return r.vm.ToValue(html)
	}
}

func (r *Runtime) parseFunc() helper {
	return func(call goja.FunctionCall) goja.Value {
		doc, err := r.services.Toolkit.Parse(call.Argument(0).String())
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return r.documentObject(doc)
	}
}

func (r *Runtime) documentObject(doc *scraper.Document) goja.Value {
	obj := r.vm.NewObject()
	_ = obj.Set("title", func() string { return doc.Title() })
	_ = obj.Set("text", func() string { return doc.Text() })
	_ = obj.Set("links", func() []string { return doc.Links() })
	_ = obj.Set("xpath", func(expr string) ([]string, error) { return doc.XPath(expr) })
	_ = obj.Set("select", func(selector string) []any {
		elements := doc.Select(selector)
		out := make([]any, 0, len(elements))
		for _, el := range elements {
			attrs := make(map[string]any, len(el.Attrs))
			for k, v := range el.Attrs {
				attrs[k] = v
			}
			raw := el.Attrs
			out = append(out, map[string]any{
				"text":  el.Text,
				"html":  el.HTML,
				"attrs": attrs,
				"attr":  func(name string) string { return raw[name] },
			})
		}
		return out
	})
	_ = obj.Set("tables", func(call goja.FunctionCall) goja.Value {
		selector := ""
		if arg := call.Argument(0); !goja.IsUndefined(arg) && !goja.IsNull(arg) {
			selector = arg.String()
		}
		tables := doc.Tables(selector)
		out := make([]any, 0, len(tables))
		for _, t := range tables {
			rows := make([]any, len(t.Rows))
			for i, row := range t.Rows {
				rows[i] = toValues(row)
			}
			records := make([]any, 0, len(t.Rows))
			for _, rec := range t.Records() {
				records = append(records, rec)
			}
			out = append(out, map[string]any{
				"headers": toValues(t.Headers),
				"rows":    rows,
				"records": records,
			})
		}
		return r.vm.ToValue(out)
	})
	_ = obj.Set("meta", func() map[string]any {
		m := doc.Meta()
		return map[string]any{
			"standard":  stringMap(m.Standard),
			"openGraph": stringMap(m.OpenGraph),
			"twitter":   stringMap(m.Twitter),
		}
	})
	_ = obj.Set("jsonLD", func() []any {
		blocks := doc.JSONLD()
		if blocks == nil {
			return []any{}
		}
		return blocks
	})
	_ = obj.Set("headings", func() []any {
		headings := doc.Headings()
		out := make([]any, len(headings))
		for i, h := range headings {
			out[i] = map[string]any{"level": h.Level, "text": h.Text, "id": h.ID}
		}
		return out
	})
	_ = obj.Set("lists", func() []any {
		lists := doc.Lists()
		out := make([]any, len(lists))
		for i, l := range lists {
			out[i] = map[string]any{"ordered": l.Ordered, "items": toValues(l.Items)}
		}
		return out
	})
	_ = obj.Set("images", func() []any {
		images := doc.Images()
		out := make([]any, len(images))
		for i, img := range images {
			out[i] = map[string]any{"src": img.Src, "alt": img.Alt, "title": img.Title}
		}
		return out
	})
	return obj
}

func stringMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (r *Runtime) findAllFunc() helper {
	return func(call goja.FunctionCall) goja.Value {
		matches, err := r.services.Toolkit.FindAll(call.Argument(0).String(), call.Argument(1).String())
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return r.vm.ToValue(toValues(matches))
	}
}

func (r *Runtime) textFunc(extract func(string) []string) helper {
	return func(call goja.FunctionCall) goja.Value {
		return r.vm.ToValue(toValues(extract(call.Argument(0).String())))
	}
}

// sleepFunc waits a random duration between min and max milliseconds,
// capped by MaxSleep
func (r *Runtime) sleepFunc(ctx context.Context) helper {
	return func(call goja.FunctionCall) goja.Value {
		lo := time.Duration(call.Argument(0).ToInteger()) * time.Millisecond
		hi := lo
		if len(call.Arguments) > 1 {
			hi = time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
		}
		d := jitter(lo, hi)
		if d > r.config.MaxSleep {
			d = r.config.MaxSleep
		}
		if d <= 0 {
			return goja.Undefined()
		}

		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			panic(r.vm.NewGoError(ctx.Err()))
		}
		return goja.Undefined()
	}
}

func (r *Runtime) consoleObject() *goja.Object {
	console := r.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		_ = console.Set(level, r.consoleFunc(level))
	}
	return console
}

const maxConsoleMessage = 4096

func (r *Runtime) consoleFunc(level string) helper {
	return func(call goja.FunctionCall) goja.Value {
		if !r.config.EnableConsole {
			return goja.Undefined()
		}
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := scraper.TruncateText(strings.Join(parts, " "), maxConsoleMessage)

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{Level: level, Message: msg, Time: time.Now()})
		r.consoleMu.Unlock()

		r.logger.Debug("sandbox console", zap.String("level", level), zap.String("message", msg))
		return goja.Undefined()
	}
}

// resolve makes target absolute against base; unparseable input is
// returned unchanged and left for the fetcher's host policy to reject
func resolve(base, target string) string {
	target = strings.TrimSpace(target)
	if target == "" || target == "undefined" {
		return base
	}
	b, err := url.Parse(base)
	if err != nil {
		return target
	}
	t, err := url.Parse(target)
	if err != nil {
		return target
	}
	return b.ResolveReference(t).String()
}

func jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func toValues(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
