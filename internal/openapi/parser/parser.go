package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-formstore/pkg/openapi"
)

// Parser implements pkgopenapi.Parser using kin-openapi.
type Parser struct {
	options pkgopenapi.ParserOptions
}

var _ pkgopenapi.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgopenapi.ParserOptions) *Parser {
	return &Parser{options: options}
}

// Operations returns every operation that accepts a request body, keyed by
// operationId (or "method:path" when the id is missing).
func (p *Parser) Operations(ctx context.Context, doc pkgopenapi.Document) (map[string]pkgopenapi.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: p.options.AllowExternalRefs,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}

	operations := make(map[string]pkgopenapi.Operation)
	if spec.Paths == nil {
		return operations, nil
	}
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		collect(operations, http.MethodPost, path, item.Post)
		collect(operations, http.MethodPut, path, item.Put)
		collect(operations, http.MethodPatch, path, item.Patch)
	}
	return operations, nil
}

func collect(target map[string]pkgopenapi.Operation, method, path string, operation *openapi3.Operation) {
	if operation == nil || operation.RequestBody == nil {
		return
	}
	body := requestSchema(operation.RequestBody)
	if body.IsEmpty() {
		return
	}
	id := operation.OperationID
	if id == "" {
		id = strings.ToLower(method) + ":" + path
	}
	target[id] = pkgopenapi.Operation{
		ID:          id,
		Method:      method,
		Path:        path,
		Summary:     operation.Summary,
		Description: operation.Description,
		RequestBody: body,
		Extensions:  extractExtensions(operation.Extensions),
	}
}

func requestSchema(requestBody *openapi3.RequestBodyRef) pkgopenapi.Schema {
	if requestBody.Value == nil {
		return pkgopenapi.Schema{Ref: requestBody.Ref}
	}
	content := requestBody.Value.Content
	if mt, ok := content["application/json"]; ok && mt != nil {
		return convertSchema(mt.Schema)
	}
	for _, mt := range content {
		if mt != nil {
			return convertSchema(mt.Schema)
		}
	}
	return pkgopenapi.Schema{}
}
