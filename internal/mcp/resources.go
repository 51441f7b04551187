package mcp

import (
	"embed"
)

//go:embed resources/*.md
var resourceFS embed.FS

// DefaultResources returns the reference documents served to clients.
func DefaultResources() []Resource {
	return []Resource{
		mustResource("googleads://error-codes", "Error codes",
			"Google Ads error categories and which ones are retried automatically", "resources/error-codes.md"),
		mustResource("googleads://gaql-reference", "GAQL reference",
			"Google Ads Query Language syntax, common fields and example queries", "resources/gaql-reference.md"),
	}
}

func mustResource(uri, name, desc, path string) Resource {
	b, err := resourceFS.ReadFile(path)
	if err != nil {
		panic(err)
	}
	return Resource{URI: uri, Name: name, Description: desc, MimeType: "text/markdown", text: string(b)}
}
