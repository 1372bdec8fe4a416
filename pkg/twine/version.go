// Package twine exposes the public surface of the twine linking engine:
// the version string and a convenience constructor over the storage and
// lifecycle packages.
package twine

// Version is the current twine release.
const Version = "v0.1.0"
