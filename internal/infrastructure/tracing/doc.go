/*
Package tracing provides lightweight request tracing.

Spans are created per HTTP request and per scrape stage (scrape, generate,
execute, run) and reported through the structured logger. Trace context travels in
the X-Trace-ID and X-Span-ID headers and in context.Context.

	tracer := tracing.New("scraper", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	err := tracer.Trace(ctx, "generate", func(ctx context.Context) error {
		code, err = gen.Generate(ctx, prompt, url)
		return err
	})
*/
package tracing
