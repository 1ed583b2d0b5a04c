// Package selector implements the matcher vocabulary rules are written in:
// boolean flag checks, regex checks over titles, bodies, authors, branches
// and comments, file-path and diff-size checks, time-since-activity checks,
// and the repo/pr/issue facade selectors that compose them with ALL/ANY/NONE
// strategies and cartesian-product expansion.
//
// Selectors are compiled once from their configuration values and evaluated
// against [gh.Target] views, producing ordered [match.Result] values that
// downstream label templates reference by selector name.
package selector
