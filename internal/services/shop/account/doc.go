// Package account models storefront users and their profiles.
package account
