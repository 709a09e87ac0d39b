package storefront

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlePlugin(t *testing.T) {
	testCases := []struct {
		name         string
		enabled      bool
		pluginURL    string
		expectedBody string
	}{
		{
			name:         "Enabled with url",
			enabled:      true,
			pluginURL:    "https://cdn.example.com/lupa.js",
			expectedBody: `{"enabled":true,"scripts":[{"id":"lupasearch-head-plugin-js","src":"https://cdn.example.com/lupa.js","position":"head","priority":150}]}`,
		},
		{
			name:         "Enabled without url",
			enabled:      true,
			expectedBody: `{"enabled":true,"scripts":[]}`,
		},
		{
			name:         "Disabled",
			pluginURL:    "https://cdn.example.com/lupa.js",
			expectedBody: `{"enabled":false,"scripts":[]}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mux := http.NewServeMux()
			NewPluginHandler(tc.enabled, tc.pluginURL).RegisterRoutes(mux)
			rec := httptest.NewRecorder()

			// Act
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lupasearch/plugin", nil))

			// Assert
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tc.expectedBody, rec.Body.String())
		})
	}
}
