// Package scanner discovers candidate local events from configured sources.
// Each source wraps one news or events page for one city: the page is
// fetched, reduced to plain text, and handed to the chat model for
// structured event extraction.
package scanner

import (
	"context"

	"github.com/dyluth/hype/pkg/campaign"
)

// Source is a single scan target.
type Source interface {
	Name() string
	City() string
	Fetch(ctx context.Context) ([]campaign.Event, error)
}
