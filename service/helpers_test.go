package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"social-service/events"
	"social-service/model"
	"social-service/pkg/clock"
	"social-service/pkg/jwt"
	"social-service/repository/repotest"
)

type fakeImageStore struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	uploadErr error
	deleteErr error
}

func (f *fakeImageStore) Upload(ctx context.Context, file, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, folder)
	return "https://res.cloudinary.com/test/image/upload/" + folder + "/" + uuid.NewString() + ".png", nil
}

func (f *fakeImageStore) Delete(ctx context.Context, imageURL, folder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, imageURL)
	return f.deleteErr
}

func (f *fakeImageStore) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletes...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.NotificationCreatedEvent
	err    error
}

func (f *fakePublisher) PublishNotificationCreated(event events.NotificationCreatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakePublisher) published() []events.NotificationCreatedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.NotificationCreatedEvent(nil), f.events...)
}

type testEnv struct {
	store         *repotest.Store
	clock         *clock.StubClock
	images        *fakeImageStore
	publisher     *fakePublisher
	jwt           *jwt.Manager
	auth          *AuthService
	users         *UserService
	posts         *PostService
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repotest.NewStore()
	clk := clock.NewStubClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	images := &fakeImageStore{}
	pub := &fakePublisher{}
	jwtManager := jwt.NewManager("test-secret", 24*time.Hour, clock.NewRealClock())

	notifications := NewNotificationService(store.Notifications(), store.Users(), pub, clk)

	return &testEnv{
		store:         store,
		clock:         clk,
		images:        images,
		publisher:     pub,
		jwt:           jwtManager,
		auth:          NewAuthService(store.Users(), store.Tokens(), jwtManager, clk),
		users:         NewUserService(store.Users(), store.Follows(), store.Posts(), images, notifications, clk),
		posts:         NewPostService(store.Posts(), store.Users(), store.Follows(), images, notifications, clk),
		notifications: notifications,
	}
}

func getTestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func fakeSignup() SignupInput {
	return SignupInput{
		Username: strings.ToLower(gofakeit.LetterN(10)),
		FullName: gofakeit.Name(),
		Email:    strings.ToLower(gofakeit.LetterN(8)) + "@example.com",
		Password: gofakeit.Password(true, true, true, false, false, 12),
	}
}

// createUser stores a user directly, skipping bcrypt.
func (e *testEnv) createUser(t *testing.T) *models.User {
	t.Helper()
	in := fakeSignup()
	now := e.clock.NowUtc()
	user := &models.User{
		ID:        uuid.New(),
		Username:  in.Username,
		FullName:  in.FullName,
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), user))
	return user
}

func (e *testEnv) createPost(t *testing.T, owner *models.User, text string) *models.PostView {
	t.Helper()
	e.clock.Advance(time.Second)
	post, err := e.posts.Create(context.Background(), owner.ID, CreatePostInput{Text: text})
	require.NoError(t, err)
	return post
}

func (e *testEnv) notificationsFor(userID uuid.UUID) []models.Notification {
	var out []models.Notification
	for _, n := range e.store.AllNotifications() {
		if n.ToID == userID {
			out = append(out, n)
		}
	}
	return out
}

var errBoom = errors.New("boom")
