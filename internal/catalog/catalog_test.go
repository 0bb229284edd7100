package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flowbind/internal/errors"
	"github.com/felixgeelhaar/flowbind/internal/log"
)

const bankAPI = `openapi: 3.0.0
info:
  title: Bank API
  version: 1.0.0
paths:
  /payments:
    post:
      operationId: createPayment
      summary: Create payment
      description: Uses the account id from the response of GET /accounts/{id}
      responses:
        '201':
          description: Created
  /accounts:
    get:
      operationId: getAccounts
      summary: List accounts
      responses:
        '200':
          description: Success
  /accounts/{id}:
    get:
      summary: Get account
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        '200':
          description: Success
    delete:
      operationId: closeAccount
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        '204':
          description: Deleted
    patch:
      operationId: patchAccount
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        '200':
          description: Patched
`

func TestBuild(t *testing.T) {
	doc, err := NewLoader(log.Discard()).LoadData([]byte(bankAPI))
	require.NoError(t, err)

	endpoints := Build(doc)
	require.Len(t, endpoints, 4, "PATCH is not part of the catalog")

	// ascending path order, GET/POST/PUT/DELETE within a path
	assert.Equal(t, "/accounts", endpoints[0].Path)
	assert.Equal(t, "GET", endpoints[0].Method)
	assert.Equal(t, "/accounts/{id}", endpoints[1].Path)
	assert.Equal(t, "GET", endpoints[1].Method)
	assert.Equal(t, "/accounts/{id}", endpoints[2].Path)
	assert.Equal(t, "DELETE", endpoints[2].Method)
	assert.Equal(t, "/payments", endpoints[3].Path)
	assert.Equal(t, "POST", endpoints[3].Method)

	assert.Equal(t, "getAccounts List accounts /accounts", endpoints[0].ComposedText)
	assert.Equal(t, "", endpoints[1].OperationID)
	assert.Equal(t, "Get account /accounts/{id}", endpoints[1].ComposedText)
	assert.Equal(t, "closeAccount /accounts/{id}", endpoints[2].ComposedText)
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, Build(nil))
	assert.NotNil(t, Build(nil), "empty catalog is an empty slice, not nil")
}

func TestComposeText(t *testing.T) {
	assert.Equal(t, "op sum desc /p", ComposeText(" op ", "sum", "desc ", "/p"))
	assert.Equal(t, "/p", ComposeText("", "", "", "/p"))
	assert.Equal(t, "", ComposeText("", "", "", ""))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bankAPI), 0644))

	loader := NewLoader(log.Discard())
	doc, err := loader.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Bank API", doc.Info.Title)

	_, err = loader.LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeOpenAPINotFound))
}

func TestLoadData_Invalid(t *testing.T) {
	_, err := NewLoader(log.Discard()).LoadData([]byte("openapi: [unterminated"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeOpenAPIParse))
}

func TestLoadData_PartialDocumentStillLoads(t *testing.T) {
	// responses are missing, so validation fails, but resolution still gets a model
	partial := `openapi: 3.0.0
info:
  title: Partial
  version: "1"
paths:
  /auth/token:
    post:
      operationId: issueToken
`
	doc, err := NewLoader(log.Discard()).LoadData([]byte(partial))
	require.NoError(t, err)
	endpoints := Build(doc)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "issueToken", endpoints[0].OperationID)
}

func TestCache(t *testing.T) {
	cache, err := NewCache(NewLoader(log.Discard()), 0)
	require.NoError(t, err)

	first, err := cache.Load([]byte(bankAPI))
	require.NoError(t, err)
	second, err := cache.Load([]byte(bankAPI))
	require.NoError(t, err)

	assert.Same(t, first, second, "second load should be served from the cache")
	assert.Equal(t, 1, cache.Len())

	_, err = cache.Load([]byte("openapi: [broken"))
	assert.Error(t, err)
	assert.Equal(t, 1, cache.Len(), "failed parses are not cached")
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("one"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint([]byte("one")))
	assert.NotEqual(t, a, Fingerprint([]byte("two")))
}
