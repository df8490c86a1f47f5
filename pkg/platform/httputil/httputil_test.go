package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "dropspace/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	write := func(t *testing.T, err error) (int, map[string]string) {
		t.Helper()
		w := httptest.NewRecorder()
		WriteError(w, err)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		return w.Code, body
	}

	t.Run("internal error omits description", func(t *testing.T) {
		code, body := write(t, domainerrors.New(domainerrors.CodeInternal, "db failed"))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "internal", body["error"])
		assert.NotContains(t, body, "error_description")
	})

	t.Run("payment mismatch maps to 402", func(t *testing.T) {
		code, body := write(t, domainerrors.New(domainerrors.CodeIncorrectPayment, "attached value does not match"))
		assert.Equal(t, http.StatusPaymentRequired, code)
		assert.Equal(t, "incorrect_payment", body["error"])
		assert.Equal(t, "attached value does not match", body["error_description"])
	})

	t.Run("sale window violations map to 409", func(t *testing.T) {
		code, body := write(t, domainerrors.New(domainerrors.CodeSaleNotStarted, "sale has not started"))
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "sale_not_started", body["error"])
	})
}
