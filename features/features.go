// Package features embeds the booking acceptance suite.
//
// Scenarios run in file order and later ones read state written by earlier
// ones, so the runner must never shuffle or parallelise them.
package features

import "embed"

// FS holds every *.feature file of the suite at its root.
//
//go:embed *.feature
var FS embed.FS
