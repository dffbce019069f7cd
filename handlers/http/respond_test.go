package httpHandler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"starter-server/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestListQuery(t *testing.T) {
	c, _ := testContext(http.MethodGet, "/?q=acme&status=active&limit=5&offset=10&sort=name&order=asc", nil)
	q, err := listQuery(c)
	require.NoError(t, err)
	assert.Equal(t, "acme", q.Search)
	assert.Equal(t, "active", q.Status)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, 10, q.Offset)
	assert.Equal(t, "name", q.SortBy)
	assert.Equal(t, "asc", q.SortOrder)

	c, _ = testContext(http.MethodGet, "/?limit=ten", nil)
	_, err = listQuery(c)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	c, _ = testContext(http.MethodGet, "/?offset=-1", nil)
	_, err = listQuery(c)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBindJSON(t *testing.T) {
	type body struct {
		Email string `json:"email" binding:"required,email"`
	}

	c, _ := testContext(http.MethodPost, "/", []byte(`{"email":"a@b.co"}`))
	var ok body
	require.NoError(t, bindJSON(c, &ok))
	assert.Equal(t, "a@b.co", ok.Email)

	c, _ = testContext(http.MethodPost, "/", []byte(`{"email":`))
	err := bindJSON(c, &body{})
	assert.Equal(t, "invalid request body", apperrors.From(err).Message)

	c, _ = testContext(http.MethodPost, "/", []byte(`{"email":"nope"}`))
	err = bindJSON(c, &body{})
	mapped := apperrors.From(err)
	assert.Equal(t, apperrors.CodeValidation, mapped.Code)
	assert.Contains(t, mapped.Message, "Email")
}

func TestRespondList_NeverNull(t *testing.T) {
	c, w := testContext(http.MethodGet, "/", nil)
	respondList[string](c, nil, 0)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.JSONEq(t, `[]`, string(got["data"]))
	assert.JSONEq(t, `0`, string(got["count"]))
}
