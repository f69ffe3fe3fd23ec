package model

import (
	internalmodel "github.com/goliatone/go-formstore/internal/model"
	pkgopenapi "github.com/goliatone/go-formstore/pkg/openapi"
)

// Builder turns parsed OpenAPI operations into form schemas.
type Builder interface {
	Forms(ops map[string]pkgopenapi.Operation) ([]FormSchema, error)
	Build(op pkgopenapi.Operation) (FormSchema, error)
}

// BuilderOption customises a Builder.
type BuilderOption func(*internalmodel.BuilderOptions)

// WithLabeler overrides how field names become labels.
func WithLabeler(labeler func(string) string) BuilderOption {
	return func(opts *internalmodel.BuilderOptions) {
		opts.Labeler = labeler
	}
}

// NewBuilder returns the default Builder.
func NewBuilder(options ...BuilderOption) Builder {
	var opts internalmodel.BuilderOptions
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	return internalmodel.NewBuilder(opts)
}

// DefaultLabeler humanizes a camelCase or snake_case name.
func DefaultLabeler(name string) string {
	return internalmodel.DefaultLabeler(name)
}
