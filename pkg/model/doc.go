// Package model exposes the form schema types shared by the store, the schema
// registry and the editors. Forms are built from YAML documents or from the
// create operations of an OpenAPI description; the builder itself lives in
// internal/model and is surfaced here through NewBuilder.
package model
