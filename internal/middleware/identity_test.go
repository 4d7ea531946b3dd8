package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"lexdesk/internal/identity"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    identity.User
	}{
		{"no headers", nil, identity.System},
		{"blank id", map[string]string{HeaderUserID: "  ", HeaderUserName: "Ana"}, identity.System},
		{"id and name", map[string]string{HeaderUserID: "u-1", HeaderUserName: " Ana Lima "}, identity.User{ID: "u-1", Name: "Ana Lima"}},
		{"id only", map[string]string{HeaderUserID: "u-2"}, identity.User{ID: "u-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got identity.User
			handler := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = identity.FromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/templates/1/execute", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("user = %+v, want %+v", got, tt.want)
			}
		})
	}
}
