// Command subseek downloads the best-rated subtitles for library items
// that are missing them, by driving the Plex web interface through a
// headless browser. See `subseek run --help` for the main entry point.
package main
