package reportapi

import (
	"context"

	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
)

// LinkGenerator formats download links locally without a backend round trip.
type LinkGenerator struct {
	base string
}

func NewLinkGenerator(base string) *LinkGenerator {
	return &LinkGenerator{base: base}
}

func (g *LinkGenerator) Generate(ctx context.Context, q domain.QueryDescriptor) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return domain.FormatLink(g.base, q), nil
}
