package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	formstore "github.com/goliatone/go-formstore"
	"github.com/goliatone/go-formstore/pkg/openapi"
	"github.com/goliatone/go-formstore/pkg/remote"
	"github.com/goliatone/go-formstore/pkg/schema"
	"github.com/goliatone/go-formstore/pkg/session"
)

// loadForms assembles the form registry: the embedded storefront forms, then
// SCHEMA_DIR files, then forms derived from the OpenAPI source. Duplicate ids
// across sources are an error.
func (a *app) loadForms(ctx context.Context) (*schema.Registry, error) {
	forms, err := schema.Embedded()
	if err != nil {
		return nil, err
	}

	if dir := strings.TrimSpace(a.cfg.SchemaDir); dir != "" {
		extra, err := schema.Load(os.DirFS(dir))
		if err != nil {
			return nil, fmt.Errorf("load schemas from %s: %w", dir, err)
		}
		if err := forms.Merge(extra); err != nil {
			return nil, err
		}
		a.logger.Debug("schema directory loaded", zap.String("dir", dir), zap.Int("forms", extra.Len()))
	}

	if raw := strings.TrimSpace(a.cfg.OpenAPISource); raw != "" {
		derived, err := a.importOpenAPI(ctx, raw)
		if err != nil {
			return nil, err
		}
		if err := forms.Merge(derived); err != nil {
			return nil, err
		}
		a.logger.Debug("openapi forms loaded", zap.String("source", raw), zap.Int("forms", derived.Len()))
	}
	return forms, nil
}

func (a *app) importOpenAPI(ctx context.Context, raw string) (*schema.Registry, error) {
	src, err := openapi.ParseSource(raw)
	if err != nil {
		return nil, err
	}
	loader := formstore.NewLoader(openapi.WithHTTP(a.cfg.RequestTimeout))
	return formstore.ImportOpenAPI(ctx, loader, formstore.NewParser(), src)
}

func (a *app) client() *remote.Client {
	return remote.NewClient(a.cfg.APIBaseURL,
		remote.WithToken(a.cfg.APIToken),
		remote.WithUploadURL(a.cfg.UploadURL),
		remote.WithTimeout(a.cfg.RequestTimeout),
		remote.WithLogger(a.logger.Named("remote")),
	)
}

func (a *app) collaborators() session.Collaborators {
	client := a.client()
	return session.Collaborators{Submitter: client, Uploader: client, Fetcher: client}
}
