// Package common contains constants, sentinel errors and small helpers shared
// by the client and server halves of the project. Callers should match errors
// with errors.Is.
package common
