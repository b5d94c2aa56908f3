package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errLocked = errors.New("locked")

func serve(t *testing.T, responder *Responder, err error) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/orders/1", func(c *gin.Context) { responder.RespondError(c, err) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/1", nil))
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return rec, problem
}

func TestResponder_UsesMappersThenFallsBack(t *testing.T) {
	responder := NewResponder("https://api.example.com", func(err error) (ProblemDetail, bool) {
		if errors.Is(err, errLocked) {
			return ErrInvalidTransition.WithDetail(err.Error()), true
		}
		return ProblemDetail{}, false
	})

	rec, problem := serve(t, responder, errLocked)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, "https://api.example.com/problems/invalid-transition", problem.Type)
	assert.Equal(t, "/orders/1", problem.Instance)

	rec, problem = serve(t, responder, errors.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "disk full", problem.Detail)

	rec, problem = serve(t, responder, NewNotFoundProblem("order", 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order", problem.Extensions["resourceType"])
}

func TestProblemDetail_WithExtensionCopies(t *testing.T) {
	base := ErrValidation.WithExtension("field", "orderNumber")
	derived := base.WithExtension("reason", "blank")

	assert.Len(t, base.Extensions, 1)
	assert.Len(t, derived.Extensions, 2)
	assert.Equal(t, "Validation Error: bad", ErrValidation.WithDetail("bad").Error())
}
