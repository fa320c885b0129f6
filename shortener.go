package shortstack

import (
	"context"
	"fmt"
	"strings"
)

// ShortenerService resolves redirect requests on the shortener domain.
type ShortenerService struct {
	links    LinkRepo
	recorder *Recorder
}

func NewShortenerService(links LinkRepo, recorder *Recorder) *ShortenerService {
	return &ShortenerService{links: links, recorder: recorder}
}

// Resolve validates the request path, looks up the matching link, and
// schedules a click event for it. No lookup happens when validation fails.
//
// An empty segment list is the bare index request and maps to the reserved
// IndexSlug without running validation.
//
// Error types returned:
//   - ErrIllegalPath: some segment fails the slug grammar
//   - ErrNotFound: no link carries the resolved slug
//   - other errors: storage failures, passed through wrapped
func (s *ShortenerService) Resolve(ctx context.Context, segments []string, meta RequestMeta) (ShortLink, error) {
	slug := IndexSlug
	if len(segments) > 0 {
		for _, seg := range segments {
			if !IsValidSlug(seg) {
				return ShortLink{}, fmt.Errorf("resolve %q: %w", seg, ErrIllegalPath)
			}
		}
		slug = strings.Join(segments, "/")
	}

	link, err := s.links.GetLinkBySlug(ctx, slug)
	if err != nil {
		return ShortLink{}, fmt.Errorf("resolve %q: %w", slug, err)
	}

	s.recorder.RecordClick(link.ID, meta)

	return link, nil
}
