package api

import (
	"fmt"
)

// buildOpenAPIDoc returns an OpenAPI 3.1 document with one submit operation
// per registered command.
func buildOpenAPIDoc(commands CommandCatalog) map[string]any {
	paths := map[string]any{}

	for _, name := range commands.Names() {
		desc, err := commands.Resolve(name)
		if err != nil {
			continue
		}
		paths["/commands/"+name] = map[string]any{"post": submitOperation(desc.Name, desc.Description)}
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "frontctl",
			"version": "1.0",
		},
		"paths": paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}

func submitOperation(name, description string) map[string]any {
	summary := description
	if summary == "" {
		summary = fmt.Sprintf("Submit %s", name)
	}

	return map[string]any{
		"operationId": "submit__" + name,
		"summary":     summary,
		"tags":        []string{"commands"},
		"parameters": []any{
			map[string]any{"name": "wait", "in": "query", "schema": map[string]any{"type": "boolean"}},
			map[string]any{"name": "nowait", "in": "query", "schema": map[string]any{"type": "boolean"}},
		},
		"requestBody": map[string]any{
			"required": false,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"params": map[string]any{"type": "object"},
						},
					},
				},
			},
		},
		"responses": map[string]any{
			"200": map[string]any{"description": "Command finished (wait=true)"},
			"202": map[string]any{"description": "Command queued"},
			"400": map[string]any{"description": "Bad request"},
			"404": map[string]any{"description": "Unknown command"},
			"503": map[string]any{"description": "Queue full or dispatcher stopped"},
			"504": map[string]any{"description": "Timed out waiting for the response"},
		},
		"security": []any{map[string]any{"BearerAuth": []string{}}},
	}
}
