package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"social-service/middleware"
	"social-service/pkg/clock"
	"social-service/pkg/jwt"
	"social-service/publisher"
	"social-service/repository/repotest"
	"social-service/service"
)

type fakeImageStore struct {
	mu      sync.Mutex
	deletes []string
}

func (f *fakeImageStore) Upload(ctx context.Context, file, folder string) (string, error) {
	return fmt.Sprintf("https://res.cloudinary.com/test/image/upload/%s/%s.png", folder, uuid.NewString()), nil
}

func (f *fakeImageStore) Delete(ctx context.Context, imageURL, folder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, imageURL)
	return nil
}

// fakeFeed keeps one subscriber per user.
type fakeFeed struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]func([]byte)
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subscribers: make(map[uuid.UUID]func([]byte))}
}

func (f *fakeFeed) SubscribeUser(userID uuid.UUID, deliver func(data []byte)) (func() error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers[userID] = deliver
	return func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subscribers, userID)
		return nil
	}, nil
}

func (f *fakeFeed) push(userID uuid.UUID, data []byte) bool {
	f.mu.Lock()
	deliver, ok := f.subscribers[userID]
	f.mu.Unlock()
	if ok {
		deliver(data)
	}
	return ok
}

type testServer struct {
	*httptest.Server
	store  *repotest.Store
	images *fakeImageStore
	feed   *fakeFeed
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repotest.NewStore()
	clk := clock.NewRealClock()
	images := &fakeImageStore{}
	feed := newFakeFeed()
	jwtManager := jwt.NewManager("handler-test-secret", 24*time.Hour, clk)

	notifications := service.NewNotificationService(store.Notifications(), store.Users(), publisher.NopPublisher{}, clk)
	auth := service.NewAuthService(store.Users(), store.Tokens(), jwtManager, clk)
	users := service.NewUserService(store.Users(), store.Follows(), store.Posts(), images, notifications, clk)
	posts := service.NewPostService(store.Posts(), store.Users(), store.Follows(), images, notifications, clk)

	router := NewRouter(RouterConfig{
		Auth:          NewAuthHandler(auth, false),
		Users:         NewUserHandler(users),
		Posts:         NewPostHandler(posts),
		Notifications: NewNotificationHandler(notifications),
		Stream:        NewStreamHandler(feed),
		Gate:          middleware.NewAuth(auth),
		HealthChecks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		},
		MaxBodyBytes: 1 << 20,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, store: store, images: images, feed: feed}
}

type apiUser struct {
	ID       uuid.UUID
	Username string
	Password string
	Token    string
}

type response struct {
	status  int
	body    map[string]interface{}
	cookies []*http.Cookie
}

func (r response) str(key string) string {
	s, _ := r.body[key].(string)
	return s
}

func (r response) list(key string) []interface{} {
	l, _ := r.body[key].([]interface{})
	return l
}

func (r response) object(key string) map[string]interface{} {
	o, _ := r.body[key].(map[string]interface{})
	return o
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{status: resp.StatusCode, cookies: resp.Cookies()}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out.body))
	return out
}

func (s *testServer) signup(t *testing.T) apiUser {
	t.Helper()

	user := apiUser{
		Username: strings.ToLower(gofakeit.LetterN(10)),
		Password: gofakeit.Password(true, true, true, false, false, 12),
	}
	resp := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": user.Username,
		"fullName": gofakeit.Name(),
		"email":    strings.ToLower(gofakeit.LetterN(8)) + "@example.com",
		"password": user.Password,
	})
	require.Equal(t, http.StatusCreated, resp.status, resp.body)

	for _, c := range resp.cookies {
		if c.Name == middleware.TokenCookie {
			user.Token = c.Value
		}
	}
	require.NotEmpty(t, user.Token)

	id, err := uuid.Parse(resp.object("user")["id"].(string))
	require.NoError(t, err)
	user.ID = id
	return user
}
