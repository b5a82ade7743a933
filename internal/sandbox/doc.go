/*
Package sandbox evaluates generated scraping code in an isolated goja
runtime.

# Policy

Every global name is classified into a capability class (policy.go). Only
primitives, containers and the scraping helpers are allowed; filesystem,
process, raw network, serialization, hashing, time/locale, introspection,
dynamic evaluation and interactive I/O are denied. The runtime deletes
every global the policy does not authorize, and each helper re-checks the
policy when it is invoked.

# Scope

Generated code sees:

	results                  array the code pushes records into
	url                      the target URL
	console.log/info/warn/error
	fetch(url)               static HTML, host policy enforced
	render(url)              HTML after a headless browser pass
	parseHTML(html)          title(), text(), select(css), xpath(expr), links(),
	                         tables(css?), meta(), jsonLD(), headings(),
	                         lists(), images()
	findAll(pattern, text)   regex matches
	extractEmails(text)
	extractPhones(text)
	sleep(minMs, maxMs)      random delay, capped

# Output

The evaluation output is the results array when it is non-empty, else the
completion value when that is an array or object, else an empty list.
Output is converted to plain data; functions are dropped.

# Limits

Capability hiding inside one process screens out accidental misuse by a
code generator. It is not a boundary against hostile code: goja shares the
host process, so untrusted workloads belong in a separate process or
container with OS-level resource and syscall limits.

# Usage

	pool, err := sandbox.NewPool(sandbox.DefaultConfig(), services, 4, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	out, err := pool.Evaluate(ctx, code, "https://example.com")
*/
package sandbox
