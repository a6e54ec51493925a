package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"clipway/services/auth/internal/entity"
	"clipway/services/auth/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAuthUseCase is a mock implementation of AuthUseCase
type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Register(ctx context.Context, email, username, password string) (*entity.User, string, error) {
	args := m.Called(ctx, email, username, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*entity.User), args.String(1), args.Error(2)
}

func (m *MockAuthUseCase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*entity.User), args.String(1), args.Error(2)
}

func (m *MockAuthUseCase) Logout(ctx context.Context, userID, tokenID string) error {
	args := m.Called(ctx, userID, tokenID)
	return args.Error(0)
}

func (m *MockAuthUseCase) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthUseCase) GetProfile(ctx context.Context, uid string) (*entity.Profile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockAuthUseCase) UpdateProfile(ctx context.Context, userID string, edit usecase.ProfileEdit) (*entity.Profile, error) {
	args := m.Called(ctx, userID, edit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockAuthUseCase) UploadProfilePicture(ctx context.Context, userID string, file io.Reader, size int64, contentType string) (*entity.Profile, error) {
	args := m.Called(ctx, userID, size, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockAuthUseCase) SubscribeSessions() (<-chan usecase.SessionEvent, func()) {
	args := m.Called()
	return args.Get(0).(<-chan usecase.SessionEvent), args.Get(1).(func())
}

var _ usecase.AuthUseCase = (*MockAuthUseCase)(nil)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestRegister_Success(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.POST("/register", handler.Register)

	user := &entity.User{ID: "user-123", Email: "new@example.com", Username: "newuser", Role: entity.RoleViewer}
	mockUseCase.On("Register", mock.Anything, "new@example.com", "newuser", "secret123").
		Return(user, "token-abc", nil)

	body, _ := json.Marshal(RegisterRequest{Email: "new@example.com", Username: "newuser", Password: "secret123"})
	req := httptest.NewRequest("POST", "/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp AuthResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "token-abc", resp.Token)
	assert.Equal(t, "user-123", resp.User.ID)
	mockUseCase.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.POST("/register", handler.Register)

	mockUseCase.On("Register", mock.Anything, "taken@example.com", "someone", "secret123").
		Return(nil, "", errors.New("user with this email already exists"))

	body, _ := json.Marshal(RegisterRequest{Email: "taken@example.com", Username: "someone", Password: "secret123"})
	req := httptest.NewRequest("POST", "/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestRegister_InvalidBody(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.POST("/register", handler.Register)

	req := httptest.NewRequest("POST", "/register", bytes.NewReader([]byte(`{"email":"not-an-email"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertNotCalled(t, "Register")
}

func TestLogin_Success(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.POST("/login", handler.Login)

	user := &entity.User{ID: "user-123", Email: "user@example.com", Username: "user"}
	mockUseCase.On("Login", mock.Anything, "user@example.com", "secret123").
		Return(user, "token-abc", nil)

	body, _ := json.Marshal(LoginRequest{Email: "user@example.com", Password: "secret123"})
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp AuthResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, "token-abc", resp.Token)
	mockUseCase.AssertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.POST("/login", handler.Login)

	mockUseCase.On("Login", mock.Anything, "user@example.com", "wrong").
		Return(nil, "", errors.New("invalid credentials"))

	body, _ := json.Marshal(LoginRequest{Email: "user@example.com", Password: "wrong"})
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestLogout_Success(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.POST("/logout", func(c *gin.Context) {
		c.Set("user_id", "user-123")
		c.Set("token_id", "jti-456")
		handler.Logout(c)
	})

	mockUseCase.On("Logout", mock.Anything, "user-123", "jti-456").Return(nil)

	req := httptest.NewRequest("POST", "/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestLogout_Unauthenticated(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.POST("/logout", handler.Logout)

	req := httptest.NewRequest("POST", "/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockUseCase.AssertNotCalled(t, "Logout")
}

func TestMe_Success(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.GET("/me", func(c *gin.Context) {
		c.Set("user_id", "user-123")
		handler.Me(c)
	})

	user := &entity.User{ID: "user-123", Email: "user@example.com", Username: "user"}
	mockUseCase.On("CurrentUser", mock.Anything, "user-123").Return(user, nil)

	req := httptest.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got entity.User
	err := json.Unmarshal(w.Body.Bytes(), &got)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", got.ID)
	mockUseCase.AssertExpectations(t)
}

func TestUpdateMe_Success(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.PUT("/me", func(c *gin.Context) {
		c.Set("user_id", "user-123")
		handler.UpdateMe(c)
	})

	profile := &entity.Profile{UID: "user-123", Bio: "ocean person", Passions: []string{"surfing"}}
	mockUseCase.On("UpdateProfile", mock.Anything, "user-123", mock.MatchedBy(func(e usecase.ProfileEdit) bool {
		return e.Bio != nil && *e.Bio == "ocean person" && e.Username == nil
	})).Return(profile, nil)

	body, _ := json.Marshal(map[string]interface{}{"bio": "ocean person", "passions": []string{"surfing"}})
	req := httptest.NewRequest("PUT", "/me", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got entity.Profile
	err := json.Unmarshal(w.Body.Bytes(), &got)
	assert.NoError(t, err)
	assert.Equal(t, "ocean person", got.Bio)
	mockUseCase.AssertExpectations(t)
}

func TestUpdateMe_BioTooLong(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.PUT("/me", func(c *gin.Context) {
		c.Set("user_id", "user-123")
		handler.UpdateMe(c)
	})

	mockUseCase.On("UpdateProfile", mock.Anything, "user-123", mock.Anything).
		Return(nil, errors.New("bio must be at most 150 characters"))

	body, _ := json.Marshal(map[string]string{"bio": "way too long"})
	req := httptest.NewRequest("PUT", "/me", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateMe_UsernameTaken(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.PUT("/me", func(c *gin.Context) {
		c.Set("user_id", "user-123")
		handler.UpdateMe(c)
	})

	mockUseCase.On("UpdateProfile", mock.Anything, "user-123", mock.Anything).
		Return(nil, errors.New("username already taken"))

	body, _ := json.Marshal(map[string]string{"username": "taken"})
	req := httptest.NewRequest("PUT", "/me", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func pictureRequest(t *testing.T, field, filename string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	assert.NoError(t, err)
	_, err = part.Write([]byte("image-bytes"))
	assert.NoError(t, err)
	writer.Close()

	req := httptest.NewRequest("POST", "/me/picture", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadProfilePicture_Success(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.POST("/me/picture", func(c *gin.Context) {
		c.Set("user_id", "user-123")
		handler.UploadProfilePicture(c)
	})

	profile := &entity.Profile{UID: "user-123", ProfilePicture: "https://cdn.example.com/upload/v1/avatar.jpg"}
	mockUseCase.On("UploadProfilePicture", mock.Anything, "user-123", int64(len("image-bytes")), "image/jpeg").
		Return(profile, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, pictureRequest(t, "picture", "avatar.jpg"))

	assert.Equal(t, http.StatusOK, w.Code)

	var got entity.Profile
	err := json.Unmarshal(w.Body.Bytes(), &got)
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/upload/v1/avatar.jpg", got.ProfilePicture)
	mockUseCase.AssertExpectations(t)
}

func TestUploadProfilePicture_UnsupportedFormat(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.POST("/me/picture", func(c *gin.Context) {
		c.Set("user_id", "user-123")
		handler.UploadProfilePicture(c)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, pictureRequest(t, "picture", "avatar.exe"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertNotCalled(t, "UploadProfilePicture")
}

func TestGetProfile_NotFound(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.GET("/users/:id", handler.GetProfile)

	mockUseCase.On("GetProfile", mock.Anything, "ghost").Return(nil, errors.New("not found"))

	req := httptest.NewRequest("GET", "/users/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestGetProfile_Success(t *testing.T) {
	mockUseCase := new(MockAuthUseCase)
	handler := NewAuthHandler(mockUseCase)

	router := setupTestRouter()
	router.GET("/users/:id", handler.GetProfile)

	profile := &entity.Profile{UID: "user-123", Username: "user", Posts: []string{"user-123-v1"}}
	mockUseCase.On("GetProfile", mock.Anything, "user-123").Return(profile, nil)

	req := httptest.NewRequest("GET", "/users/user-123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got entity.Profile
	err := json.Unmarshal(w.Body.Bytes(), &got)
	assert.NoError(t, err)
	assert.Equal(t, []string{"user-123-v1"}, got.Posts)
	mockUseCase.AssertExpectations(t)
}
