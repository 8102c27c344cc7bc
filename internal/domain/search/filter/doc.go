// Package filter holds the backend-agnostic metadata filter and its translations:
// a RediSearch tag clause string for the lexical engines and an And/Equal
// predicate tree for vector stores.
package filter
