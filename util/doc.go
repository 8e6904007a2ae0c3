// Package util provides small generic helpers shared by aggkit packages:
// pointer helpers, ordered map keys, and the absent-value predicate used when
// sanitizing stage parameters.
package util
