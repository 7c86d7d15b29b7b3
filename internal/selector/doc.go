// Package selector ranks parsed subtitle candidates and picks the one to
// download. Selection is a pure function of the candidate set and the
// configured language priority, so identical inputs always choose the same
// candidate.
package selector
