// Package language provides unified language code normalization.
//
// Catalog metadata labels subtitle streams with a mix of ISO 639-1 codes,
// ISO 639-2 codes, and full word forms; all conversions are consolidated
// here so the catalog filter and the candidate selector agree on what
// counts as the same language.
package language
