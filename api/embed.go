// Package api 内嵌 OpenAPI 接口描述
package api

import (
	"context"
	"embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi/*.yaml
var OpenAPIFS embed.FS

// DocumentPath 内嵌文档路径
const DocumentPath = "openapi/biovault.yaml"

// LoadDocument 加载并校验内嵌的 OpenAPI 文档
func LoadDocument(ctx context.Context) (*openapi3.T, error) {
	data, err := OpenAPIFS.ReadFile(DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("read openapi document: %w", err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}
