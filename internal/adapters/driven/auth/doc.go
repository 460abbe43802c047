// Package auth resolves caller credentials to groups.
package auth
