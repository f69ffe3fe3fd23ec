// Package formstore wires the OpenAPI loader and parser to the form schema
// registry so storefront forms can be generated from an API description.
package formstore

import (
	"context"
	"fmt"

	internalLoader "github.com/goliatone/go-formstore/internal/openapi/loader"
	internalParser "github.com/goliatone/go-formstore/internal/openapi/parser"
	"github.com/goliatone/go-formstore/pkg/model"
	pkgopenapi "github.com/goliatone/go-formstore/pkg/openapi"
	"github.com/goliatone/go-formstore/pkg/schema"
)

// NewLoader constructs an OpenAPI loader while keeping the concrete type
// hidden from consumers.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	return internalLoader.New(pkgopenapi.NewLoaderOptions(options...))
}

// NewParser constructs an OpenAPI parser backed by kin-openapi.
func NewParser(options ...pkgopenapi.ParserOption) pkgopenapi.Parser {
	return internalParser.New(pkgopenapi.NewParserOptions(options...))
}

// ImportOpenAPI loads src, extracts its create operations and returns a
// registry holding one validated form per operation. Builder options tune how
// fields are labelled.
func ImportOpenAPI(ctx context.Context, loader pkgopenapi.Loader, parser pkgopenapi.Parser, src pkgopenapi.Source, options ...model.BuilderOption) (*schema.Registry, error) {
	if loader == nil {
		loader = NewLoader()
	}
	if parser == nil {
		parser = NewParser()
	}

	doc, err := loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	ops, err := parser.Operations(ctx, doc)
	if err != nil {
		return nil, err
	}
	forms, err := model.NewBuilder(options...).Forms(ops)
	if err != nil {
		return nil, err
	}

	registry := schema.NewRegistry()
	for _, form := range forms {
		if err := registry.Add(form); err != nil {
			return nil, fmt.Errorf("openapi %s: %w", src.Location, err)
		}
	}
	return registry, nil
}
