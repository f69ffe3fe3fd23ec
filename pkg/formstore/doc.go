// Package formstore implements the editor behind multi-section admin forms:
// a Store owns one nested document shaped by a model.FormSchema, addresses
// nodes by Path, appends and removes array entries, and normalises the
// document into the JSON payload submitted to the storefront API.
//
// PathError and IndexError signal broken form bindings and are logged at
// error level before being returned. ValidationError is user-facing and
// names the offending field in dotted notation.
package formstore
