package schema

import (
	"embed"
	"io/fs"
)

//go:embed forms/*.yaml
var embeddedForms embed.FS

// EmbeddedFS returns the bundled storefront form schemas.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedForms, "forms")
	if err != nil {
		// The embed directive guarantees the subpath exists.
		panic(err)
	}
	return sub
}

// Embedded loads the bundled storefront form schemas.
func Embedded() (*Registry, error) {
	return Load(EmbeddedFS())
}
