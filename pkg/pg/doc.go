// Package pg opens PostgreSQL connection pools with retry, applies goose
// migrations from an embedded filesystem, and classifies driver errors.
package pg
