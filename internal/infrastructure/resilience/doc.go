/*
Package resilience guards outbound dependencies with a circuit breaker.

Three breakers run in a scrape server: "fetch" in front of the static HTTP
client, "render" in front of headless Chrome, and "codegen" in front of the
model API. When one opens, the caller fails fast with ErrCircuitOpen. The
fallback ladder treats that as an ordinary tier failure and moves on to the
next tier.

# Usage

	breaker := resilience.External("fetch", func(name string, from, to resilience.State) {
		logger.Warn("breaker state changed",
			zap.String("breaker", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to))
	})

	page, err := resilience.Call(breaker, func() (*fetch.Page, error) {
		return static.Fetch(ctx, target)
	})
	if resilience.IsRejected(err) {
		// dependency is cooling down
	}

External trips after 10 consecutive failures, or once 20 requests are
counted in a 60s window with more than 70% of them failing. After 30s it
lets up to 5 probe requests through in the half-open state.

context.Canceled is neutral. A scrape abandoned by its caller neither
trips nor heals the breaker.

# States

	Closed --[ReadyToTrip]--> Open --[Timeout]--> HalfOpen --[MaxRequests ok]--> Closed
	                                                 |
	                                             [failure]--> Open
*/
package resilience
