// Package types defines the record model, change-log types, migration
// payloads, and standard errors for the healthvault storage system.
package types
