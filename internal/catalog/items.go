package catalog

import (
	"context"
	"fmt"
	"strings"

	"subseek/internal/language"
)

// Plex metadata type filter for section listings: 4 selects episodes.
const episodeTypeFilter = "4"

// ListItemsMissingSubtitles enumerates library items whose subtitle streams
// do not cover every requested language. An empty library name scans all
// movie and show libraries; mediaType narrows the scan to movies or
// episodes. The returned slice preserves library order, which becomes the
// run's processing order.
func (c *Client) ListItemsMissingSubtitles(ctx context.Context, libraryName string, mediaType MediaType, languages []string) ([]Item, error) {
	wanted := language.NormalizeList(languages)
	if len(wanted) == 0 {
		return nil, fmt.Errorf("list items: no target languages")
	}

	identity, err := c.ServerIdentity(ctx)
	if err != nil {
		return nil, err
	}

	sections, err := c.listSections(ctx)
	if err != nil {
		return nil, err
	}

	var items []Item
	matched := false
	for _, section := range sections {
		if libraryName != "" && !strings.EqualFold(section.Title, libraryName) {
			continue
		}
		if section.Type != "movie" && section.Type != "show" {
			continue
		}
		matched = true
		if mediaType == MediaTypeMovie && section.Type != "movie" {
			continue
		}
		if mediaType == MediaTypeEpisode && section.Type != "show" {
			continue
		}

		sectionItems, err := c.sectionItems(ctx, section)
		if err != nil {
			return nil, err
		}
		for _, meta := range sectionItems {
			item, missing, err := c.itemIfMissing(ctx, identity, meta, wanted)
			if err != nil {
				return nil, err
			}
			if missing {
				items = append(items, item)
			}
		}
	}
	if libraryName != "" && !matched {
		return nil, fmt.Errorf("library %q not found", libraryName)
	}
	return items, nil
}

func (c *Client) listSections(ctx context.Context) ([]directoryMeta, error) {
	var resp mediaContainerResponse
	if err := c.doJSONRequest(ctx, "/library/sections", nil, &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Directory, nil
}

func (c *Client) sectionItems(ctx context.Context, section directoryMeta) ([]itemMetadata, error) {
	path := fmt.Sprintf("/library/sections/%s/all", section.Key)
	var query map[string]string
	if section.Type == "show" {
		query = map[string]string{"type": episodeTypeFilter}
	}
	var resp mediaContainerResponse
	if err := c.doJSONRequest(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Metadata, nil
}

// itemIfMissing fetches the item's stream metadata and reports whether any
// wanted language lacks a subtitle stream.
func (c *Client) itemIfMissing(ctx context.Context, identity Identity, meta itemMetadata, wanted []string) (Item, bool, error) {
	existing, err := c.subtitleLanguages(ctx, meta.RatingKey)
	if err != nil {
		return Item{}, false, err
	}

	var missing []string
	for _, lang := range wanted {
		if _, ok := existing[lang]; !ok {
			missing = append(missing, lang)
		}
	}
	if len(missing) == 0 {
		return Item{}, false, nil
	}

	mediaType := MediaTypeMovie
	title := meta.Title
	if meta.Type == "episode" {
		mediaType = MediaTypeEpisode
		title = EpisodeTitle(meta.GrandparentTitle, meta.ParentIndex, meta.Index, meta.Title)
	}

	return Item{
		Key:              meta.RatingKey,
		Title:            title,
		MediaType:        mediaType,
		DetailURL:        c.detailURL(identity, meta.RatingKey),
		MissingLanguages: missing,
		Status:           StatusPending,
	}, true, nil
}

// subtitleLanguages returns the normalized language codes of the item's
// existing subtitle streams. Stream metadata is only present on the item
// detail resource, not on section listings.
func (c *Client) subtitleLanguages(ctx context.Context, ratingKey string) (map[string]struct{}, error) {
	var resp mediaContainerResponse
	if err := c.doJSONRequest(ctx, "/library/metadata/"+ratingKey, nil, &resp); err != nil {
		return nil, err
	}

	existing := make(map[string]struct{})
	for _, meta := range resp.MediaContainer.Metadata {
		for _, media := range meta.Media {
			for _, part := range media.Part {
				for _, stream := range part.Stream {
					if stream.StreamType != subtitleStreamType {
						continue
					}
					existing[language.StreamLanguage(stream.LanguageCode)] = struct{}{}
				}
			}
		}
	}
	return existing, nil
}

func (c *Client) detailURL(identity Identity, ratingKey string) string {
	return fmt.Sprintf("%s/web/index.html#!/server/%s/details?key=/library/metadata/%s",
		c.baseURL, identity.MachineIdentifier, ratingKey)
}
