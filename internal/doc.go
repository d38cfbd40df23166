// Package internal holds small helpers shared by goRedeem's packages that are
// not part of the public API.
package internal
