// Package memory provides an in-memory implementation of the storage
// ports, suitable for development, examples, and tests.
package memory
