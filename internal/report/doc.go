// Package report renders grading reports deterministically.
//
// Canonical JSON (sorted keys, NFC strings, no HTML escaping) is the form
// used to compare two gradings of the same captures byte for byte, and the
// form golden files are written in.
package report
