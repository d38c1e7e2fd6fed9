package caption

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

var moods = []string{
	"%s by %s glows like city lights after midnight.",
	"%s by %s: a rush of color for the late drive home.",
	"Let %s by %s carry the room somewhere warmer.",
	"%s by %s, made for headphones and open windows.",
	"Turn it up. %s by %s was built for moments like this.",
}

// TemplateService produces captions offline from a fixed set of templates.
// The same (title, artist) always yields the same caption.
type TemplateService struct{}

// NewTemplateService creates an offline caption generator.
func NewTemplateService() *TemplateService {
	return &TemplateService{}
}

// Describe implements ports.CaptionService.
func (TemplateService) Describe(ctx context.Context, title, artist string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	title, artist = strings.TrimSpace(title), strings.TrimSpace(artist)
	if title == "" {
		return "", domain.NewCaptionError(title, artist, 0, "missing title", domain.ErrCaptionUnavailable)
	}
	if artist == "" {
		artist = "an unknown artist"
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(title + "\x00" + artist)))
	return fmt.Sprintf(moods[h.Sum32()%uint32(len(moods))], title, artist), nil
}

var _ ports.CaptionService = (*TemplateService)(nil)
