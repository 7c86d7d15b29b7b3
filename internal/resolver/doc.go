// Package resolver maps logical element roles ("subtitle control",
// "search trigger") to live page handles. Each role carries an ordered list
// of locator strategies, most specific first; resolution walks the list
// with short bounded polls so interface drift degrades to the next
// strategy instead of failing the whole run.
package resolver
