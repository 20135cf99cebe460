package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitlogapp/fitlog/internal/middleware"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLoginChecker := NewMockLoginChecker(ctrl)
	authMiddleware := middleware.NewAuthMiddlewareHandler(mockLoginChecker)

	testCases := []struct {
		name               string
		path               string
		method             string
		token              string
		expectedStatusCode int
		expectedUserID     string
		mockUserID         string
		mockIsLoggedErr    error
	}{
		{
			name:               "AllowedPathWithoutToken",
			path:               "/version",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "AllowedPathPrefixWithoutToken",
			path:               "/catalog/workouts",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "LoginPathWithoutToken",
			path:               "/a/login",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "NotAllowedPathWithoutToken",
			path:               "/workoutlog/days",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidToken",
			path:               "/workoutlog/days",
			method:             "GET",
			token:              "valid-token",
			mockUserID:         "u1",
			expectedStatusCode: http.StatusOK,
			expectedUserID:     "u1",
		},
		{
			name:               "InvalidToken",
			path:               "/workoutlog/days",
			method:             "GET",
			token:              "invalid-token",
			mockUserID:         "",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "LoginCheckError",
			path:               "/workoutlog/days",
			method:             "GET",
			token:              "some-token",
			mockIsLoggedErr:    errors.New("redis down"),
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "OptionsAlwaysOK",
			path:               "/workoutlog/days",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			assert.NoError(t, err)
			if tc.token != "" {
				req.Header.Add(middleware.SessionTokenHeader, tc.token)
				mockLoginChecker.EXPECT().
					IsLogged(gomock.Any(), tc.token).
					Return(tc.mockUserID, tc.mockIsLoggedErr)
			}

			var gotUserID string
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID = middleware.UserIDFromContext(r.Context())
			})

			rr := httptest.NewRecorder()
			authMiddleware.AuthCheck()(nextHandler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			if tc.expectedUserID != "" {
				assert.Equal(t, tc.expectedUserID, gotUserID)
			}
		})
	}
}
