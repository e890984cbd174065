// Package sqlite implements storefront persistence on a single SQLite file.
package sqlite
