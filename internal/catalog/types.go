package catalog

import "fmt"

// MediaType distinguishes the two item shapes the workflow handles.
type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeEpisode MediaType = "episode"
)

// ParseMediaType converts a string into a known MediaType.
func ParseMediaType(value string) (MediaType, bool) {
	switch MediaType(value) {
	case MediaTypeMovie:
		return MediaTypeMovie, true
	case MediaTypeEpisode:
		return MediaTypeEpisode, true
	case "":
		return "", true
	default:
		return "", false
	}
}

// Status is the lifecycle of an item within one run. It is written only by
// the item workflow's terminal transition.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Item is one library entry missing at least one requested subtitle
// language. Everything except Status is read-only to the workflow.
type Item struct {
	Key              string
	Title            string
	MediaType        MediaType
	DetailURL        string
	MissingLanguages []string
	Status           Status
}

// Identity describes the Plex server the catalog talks to.
type Identity struct {
	MachineIdentifier string
	FriendlyName      string
}

// EpisodeTitle renders the canonical "Show - SxxEyy - Title" display form.
func EpisodeTitle(show string, season, episode int, title string) string {
	return fmt.Sprintf("%s - S%02dE%02d - %s", show, season, episode, title)
}

// Wire types for the subset of the Plex API responses the catalog reads.

type mediaContainerResponse struct {
	MediaContainer mediaContainer `json:"MediaContainer"`
}

type mediaContainer struct {
	MachineIdentifier string          `json:"machineIdentifier"`
	FriendlyName      string          `json:"friendlyName"`
	Directory         []directoryMeta `json:"Directory"`
	Metadata          []itemMetadata  `json:"Metadata"`
}

type directoryMeta struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

type itemMetadata struct {
	RatingKey        string      `json:"ratingKey"`
	Title            string      `json:"title"`
	Type             string      `json:"type"`
	GrandparentTitle string      `json:"grandparentTitle"`
	ParentIndex      int         `json:"parentIndex"`
	Index            int         `json:"index"`
	Media            []mediaPart `json:"Media"`
}

type mediaPart struct {
	Part []partStreams `json:"Part"`
}

type partStreams struct {
	Stream []stream `json:"Stream"`
}

type stream struct {
	StreamType   int    `json:"streamType"`
	LanguageCode string `json:"languageCode"`
}

// Stream type 3 is a subtitle stream in the Plex API.
const subtitleStreamType = 3
