package agents

import (
	"context"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/local/jarvis/internal/research"
)

var imageURLPattern = regexp.MustCompile(`(?i)(https?://\S+?\.(?:jpg|jpeg|png|gif|webp))(?:\?\S*)?`)

// ImageStage collects visual assets: search result images first, then image
// URLs mentioned in the gathered context.
type ImageStage struct{}

func NewImageStage() *ImageStage { return &ImageStage{} }

func (s *ImageStage) Name() string { return ImageName }

func (s *ImageStage) Execute(_ context.Context, rc *research.RequestContext) (*research.RequestContext, error) {
	before := len(rc.Images)
	var fromSearch []string
	if rc.SearchResults != nil {
		fromSearch = rc.SearchResults.Images
	}
	rc.Images = research.MergeImages(rc.Images, fromSearch)

	if free := maxUniqueImages - len(rc.Images); free > 0 {
		found := HarvestImageURLs(rc.Context)
		merged := research.MergeImages(rc.Images, found)
		if extra := len(merged) - len(rc.Images); extra > free {
			merged = merged[:len(rc.Images)+free]
		}
		rc.Images = merged
	}

	log.Info().
		Str("request_id", rc.RequestID).
		Str("stage", ImageName).
		Int("images", len(rc.Images)).
		Int("added", len(rc.Images)-before).
		Msg("extracted visual assets")
	return rc, nil
}

// HarvestImageURLs returns image links found in text, in order of appearance,
// without query strings.
func HarvestImageURLs(text string) []string {
	var out []string
	for _, m := range imageURLPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}
