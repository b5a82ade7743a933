package fallback

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/PromptScraper/internal/providers/fetch"
	"github.com/GriffinCanCode/PromptScraper/internal/providers/scraper"
)

const (
	StatusRendered = "rendered_fallback"
	StatusMinimal  = "minimal_fallback"
)

// PageFunc loads a page; fetch.Renderer.Render and fetch.Client.Fetch
// both satisfy it as method values
type PageFunc func(ctx context.Context, url string) (*fetch.Page, error)

// RenderedTier extracts the title and phone numbers from a browser-rendered
// copy of the page
func RenderedTier(render PageFunc, kit *scraper.Toolkit) Tier {
	if kit == nil {
		kit = scraper.NewToolkit()
	}
	return Tier{
		Rank:     RankRendered,
		Fidelity: StatusRendered,
		Produce: func(ctx context.Context, url string) ([]map[string]any, error) {
			page, err := render(ctx, url)
			if err != nil {
				return nil, fmt.Errorf("rendered fetch: %w", err)
			}
			doc, err := kit.Parse(page.HTML)
			if err != nil {
				return nil, err
			}

			phones := kit.ExtractFallbackPhones(doc.Text())
			numbers := make([]any, len(phones))
			for i, p := range phones {
				numbers[i] = p
			}

			return []map[string]any{{
				"title":         doc.TitleOr(scraper.NoTitle),
				"url":           url,
				"phone_numbers": numbers,
				"total_phones":  len(phones),
				"status":        StatusRendered,
				"message":       "Used headless rendering to get past anti-bot protection",
			}}, nil
		},
	}
}

// MinimalTier records the page title from a plain GET
func MinimalTier(get PageFunc, kit *scraper.Toolkit) Tier {
	if kit == nil {
		kit = scraper.NewToolkit()
	}
	return Tier{
		Rank:     RankMinimal,
		Fidelity: StatusMinimal,
		Produce: func(ctx context.Context, url string) ([]map[string]any, error) {
			page, err := get(ctx, url)
			if err != nil {
				return nil, fmt.Errorf("static fetch: %w", err)
			}
			doc, err := kit.Parse(page.HTML)
			if err != nil {
				return nil, err
			}

			return []map[string]any{{
				"title":   doc.TitleOr(scraper.NoTitle),
				"url":     url,
				"status":  StatusMinimal,
				"message": "All extraction methods failed, extracted basic page info",
			}}, nil
		},
	}
}
