package resolver

// Role names used by the download workflow.
const (
	// RolePostLoginMarker confirms the authenticated web app rendered.
	RolePostLoginMarker = "post-login-marker"
	// RoleSubtitleControl opens the subtitle menu on an item detail page.
	RoleSubtitleControl = "subtitle-control"
	// RoleSearchTrigger starts an online subtitle search from the menu.
	RoleSearchTrigger = "search-trigger"
	// RoleResultRow matches one search result per element.
	RoleResultRow = "result-row"
	// RoleDownloadControl is the per-row download button, resolved within
	// a result row.
	RoleDownloadControl = "download-control"
	// RoleDownloadConfirmation appears once a download was accepted.
	RoleDownloadConfirmation = "download-confirmation"
)

// DefaultRoles is the built-in registry. Ordering matters: earlier
// strategies are more specific to the current web app markup, later ones
// are looser matches kept for older or restyled builds.
func DefaultRoles() []Role {
	return []Role{
		{
			Name: RolePostLoginMarker,
			Strategies: []Locator{
				ByQuery(`div[class*="NavBar"]`),
				ByAttribute("class", "page"),
				ByQuery(`[data-testid="navBar"]`),
			},
		},
		{
			Name: RoleSubtitleControl,
			Strategies: []Locator{
				ByAttribute("class", "subtitle"),
				ByAttribute("aria-label", "Subtitle"),
				ByAttribute("aria-label", "subtitle"),
				ByXPath(`//div[contains(@class, "subtitle")]//button`),
				ByText("Subtitles"),
				ByText("subtitles"),
			},
		},
		{
			Name: RoleSearchTrigger,
			Strategies: []Locator{
				ByXPath(`//button[contains(text(), "Search")]`),
				ByXPath(`//div[contains(text(), "Search")]`),
				ByXPath(`//*[@role="button" and contains(text(), "Search")]`),
			},
		},
		{
			Name: RoleResultRow,
			Strategies: []Locator{
				ByXPath(`//*[contains(@class, "subtitle-result") or contains(@class, "SubtitleSearchResult")]`),
				ByXPath(`//div[contains(@class, "SearchResult")]`),
			},
		},
		{
			Name: RoleDownloadControl,
			Strategies: []Locator{
				ByQuery(`button[aria-label*="Download"]`),
				ByQuery(`button[class*="download"]`),
			},
		},
		{
			Name: RoleDownloadConfirmation,
			Strategies: []Locator{
				ByQuery(`[class*="Toast"]`),
				ByQuery(`[role="alert"]`),
				ByText("Download Started"),
			},
		},
	}
}
