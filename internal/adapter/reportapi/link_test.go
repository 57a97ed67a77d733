package reportapi

import (
	"context"
	"testing"

	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkGenerator_Generate(t *testing.T) {
	g := NewLinkGenerator("https://reports.example.org/download")

	link, err := g.Generate(context.Background(), testQuery(domain.AllCouncils))
	require.NoError(t, err)
	assert.Equal(t,
		"https://reports.example.org/download?council=ALL&endDate=2022-12-31&requestTypes=bulky_items%2Cpothole&startDate=2022-01-01",
		link)
}

func TestLinkGenerator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLinkGenerator("https://reports.example.org").Generate(ctx, testQuery(domain.AllCouncils))
	require.ErrorIs(t, err, context.Canceled)
}
