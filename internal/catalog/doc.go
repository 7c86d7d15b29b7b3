// Package catalog queries the Plex HTTP API for library items that are
// missing subtitles in the requested languages. It is strictly read-only:
// the automation workflow drives the web interface, never this API, for
// anything that mutates server state.
package catalog
