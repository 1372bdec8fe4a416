// Package types defines the entity-link domain records, closed enumerations,
// standard errors, and the LinkStore contract for the Twine linking system.
package types
