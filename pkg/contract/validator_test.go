package contract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"releasegate/pkg/types"
)

const conformant = `openapi: 3.0.1
info:
  title: GitHub
  version: 1.0.0
  x-display:
    label: GitHub
    icon: icon.png
paths:
  /repos:
    get:
      operationId: listRepos
      x-display:
        label: List repositories
    post:
      operationId: createRepo
      x-display:
        label: Create repository
  /repos/{id}:
    parameters:
      - $ref: '#/components/parameters/id'
    delete:
      x-display:
        label: Delete repository
components:
  parameters:
    id:
      name: id
      in: path
      x-display:
        label: Repository id
    limit:
      name: limit
      in: query
      x-display:
        label: Page size
`

func writeContract(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func asValidation(t *testing.T, err error) *types.ValidationError {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrValidation)
	var ve *types.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve
}

func TestLoad_ObjectModel(t *testing.T) {
	doc, err := Load(writeContract(t, "openapi.yaml", conformant))
	require.NoError(t, err)

	assert.Equal(t, "3.0.1", doc.Version)
	require.NotNil(t, doc.Info)
	assert.Equal(t, "GitHub", doc.Info.Title)
	assert.Equal(t, map[string]any{"label": "GitHub", "icon": "icon.png"}, doc.Info.Extensions[DisplayExtension])

	// 路径保持文档顺序，操作按固定方法顺序
	require.Len(t, doc.Paths, 2)
	assert.Equal(t, "/repos", doc.Paths[0].Path)
	require.Len(t, doc.Paths[0].Operations, 2)
	assert.Equal(t, "get", doc.Paths[0].Operations[0].Method)
	assert.Equal(t, "post", doc.Paths[0].Operations[1].Method)
	assert.Equal(t, "createRepo", doc.Paths[0].Operations[1].OperationID)

	require.NotNil(t, doc.Components)
	require.Len(t, doc.Components.Parameters, 2)
	assert.Equal(t, "id", doc.Components.Parameters[0].Key)
	assert.Equal(t, "query", doc.Components.Parameters[1].In)

	assert.NoError(t, Validate(doc))
	assert.NoError(t, ValidateAll(doc))
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  bool
		scope    string
		rule     string
		location string
	}{
		{
			name:    "conformant",
			content: conformant,
		},
		{
			name:    "no sections at all",
			content: "openapi: 3.0.0\n",
		},
		{
			name:    "info without extensions",
			content: "openapi: 3.0.0\ninfo:\n  title: t\n",
			wantErr: true, scope: types.ScopeInfo, rule: RuleMissingExtension,
		},
		{
			name:    "info empty icon",
			content: "openapi: 3.0.0\ninfo:\n  x-display:\n    label: L\n    icon: ''\n",
			wantErr: true, scope: types.ScopeInfo, rule: RuleMissingIcon,
		},
		{
			name:    "info missing icon",
			content: "openapi: 3.0.0\ninfo:\n  x-display:\n    label: L\n",
			wantErr: true, scope: types.ScopeInfo, rule: RuleMissingIcon,
		},
		{
			name:    "info empty label",
			content: "openapi: 3.0.0\ninfo:\n  x-display:\n    label: ''\n    icon: i.png\n",
			wantErr: true, scope: types.ScopeInfo, rule: RuleMissingLabel,
		},
		{
			name:    "info wrong extension name",
			content: "openapi: 3.0.0\ninfo:\n  x-logo:\n    url: a.png\n",
			wantErr: true, scope: types.ScopeInfo, rule: RuleUnknownExtension("x-logo"),
		},
		{
			name:    "info extra extension",
			content: "openapi: 3.0.0\ninfo:\n  x-display:\n    label: L\n    icon: i\n  x-other: 1\n",
			wantErr: true, scope: types.ScopeInfo, rule: RuleUnknownExtension("x-other"),
		},
		{
			name:    "info extension not a map",
			content: "openapi: 3.0.0\ninfo:\n  x-display: GitHub\n",
			wantErr: true, scope: types.ScopeInfo, rule: RuleMissingExtension,
		},
		{
			name:    "operation extension not a map",
			content: "openapi: 3.0.0\npaths:\n  /issues:\n    get:\n      x-display: [a, b]\n",
			wantErr: true, scope: types.ScopePaths, rule: RuleMissingExtension, location: "GET /issues",
		},
		{
			name:    "info extension empty map",
			content: "openapi: 3.0.0\ninfo:\n  x-display: {}\n",
			wantErr: true, scope: types.ScopeInfo, rule: RuleMissingLabel,
		},
		{
			name:    "operation without icon is fine",
			content: "openapi: 3.0.0\npaths:\n  /a:\n    get:\n      x-display:\n        label: A\n",
		},
		{
			name:    "operation without extensions",
			content: "openapi: 3.0.0\npaths:\n  /a:\n    get:\n      x-display:\n        label: A\n    put:\n      operationId: p\n",
			wantErr: true, scope: types.ScopePaths, rule: RuleMissingExtension, location: "PUT /a",
		},
		{
			name:    "path item without get is checked",
			content: "openapi: 3.0.0\npaths:\n  /a:\n    post:\n      x-display:\n        label: ''\n",
			wantErr: true, scope: types.ScopePaths, rule: RuleMissingLabel, location: "POST /a",
		},
		{
			name:    "component parameter without extensions",
			content: "openapi: 3.0.0\ncomponents:\n  parameters:\n    limit:\n      name: limit\n      in: query\n",
			wantErr: true, scope: types.ScopeComponents, rule: RuleMissingExtension, location: "parameter limit",
		},
		{
			name:    "component schemas are not checked",
			content: "openapi: 3.0.0\ncomponents:\n  schemas:\n    Repo:\n      type: object\n",
		},
		{
			name:    "not parsable",
			content: "openapi: [3.0.0\n",
			wantErr: true, scope: types.ScopeDocument,
		},
		{
			name:    "missing version field",
			content: "info:\n  title: t\n",
			wantErr: true, scope: types.ScopeDocument,
		},
		{
			name:    "swagger 2 accepted",
			content: "swagger: '2.0'\ninfo:\n  x-display:\n    label: L\n    icon: I\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeContract(t, "openapi.yaml", tt.content)
			err := ValidateFile(path)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			ve := asValidation(t, err)
			assert.Equal(t, tt.scope, ve.Scope)
			assert.Equal(t, path, ve.File)
			if tt.rule != "" {
				assert.Equal(t, tt.rule, ve.Rule)
			}
			assert.Equal(t, tt.location, ve.Location)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestValidate_FailFastOrder(t *testing.T) {
	// Info / Paths / Components 三处都不合规
	content := `openapi: 3.0.0
info:
  title: t
paths:
  /a:
    get: {}
components:
  parameters:
    p:
      name: p
`
	doc, err := Load(writeContract(t, "api.yml", content))
	require.NoError(t, err)

	ve := asValidation(t, Validate(doc))
	assert.Equal(t, types.ScopeInfo, ve.Scope)

	all := ValidateAll(doc)
	require.Error(t, all)
	var scopes []string
	for _, e := range all.(interface{ Unwrap() []error }).Unwrap() {
		var v *types.ValidationError
		require.True(t, errors.As(e, &v))
		scopes = append(scopes, v.Scope)
	}
	assert.Equal(t, []string{types.ScopeInfo, types.ScopePaths, types.ScopeComponents}, scopes)
}

func TestValidate_OperationOrder(t *testing.T) {
	// 文档里 post 在 get 前面，但 get 先被检查
	content := `openapi: 3.0.0
paths:
  /a:
    post: {}
    get: {}
`
	doc, err := Load(writeContract(t, "api.yaml", content))
	require.NoError(t, err)
	ve := asValidation(t, Validate(doc))
	assert.Equal(t, "GET /a", ve.Location)
}

func TestLoad_JSON(t *testing.T) {
	content := `{
  "openapi": "3.0.0",
  "info": {"title": "t", "x-display": {"label": "L", "icon": "I"}},
  "paths": {"/a": {"get": {"x-display": {"label": "A"}}}}
}`
	assert.NoError(t, ValidateFile(writeContract(t, "api.json", content)))
}

func TestLoad_IOError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, types.ErrIO)
	assert.NotErrorIs(t, err, types.ErrValidation)
}

func TestValidate_NilDocument(t *testing.T) {
	ve := asValidation(t, Validate(nil))
	assert.Equal(t, types.ScopeDocument, ve.Scope)
}
