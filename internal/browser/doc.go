// Package browser owns the automated browser session. The Session
// interface is the narrow surface the workflow drives (navigate, find,
// click, read); ChromeSession implements it over the Chrome DevTools
// protocol via chromedp.
package browser
