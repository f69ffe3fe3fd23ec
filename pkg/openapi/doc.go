// Package openapi describes the OpenAPI inputs that can seed form schemas:
// where a document comes from, the operations it declares and their request
// body schemas. Loading and parsing live under internal/openapi; the root
// package wires them together.
package openapi
