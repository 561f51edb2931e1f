// Package repotest provides in-memory repositories for service and handler tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"social-service/model"
	"social-service/repository"
)

type edge struct {
	from, to uuid.UUID
}

// Store keeps every table in memory behind one lock.
type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]models.User
	follows       []edge
	posts         map[uuid.UUID]models.Post
	postOrder     []uuid.UUID
	likes         []edge // from = post, to = user
	comments      []models.Comment
	notifications []models.Notification
	revoked       map[string]time.Time

	// NotificationErr, when set, is returned by every notification write.
	NotificationErr error
}

func NewStore() *Store {
	return &Store{
		users:   make(map[uuid.UUID]models.User),
		posts:   make(map[uuid.UUID]models.Post),
		revoked: make(map[string]time.Time),
	}
}

func (s *Store) Users() repository.UserRepository                 { return &userRepo{s} }
func (s *Store) Follows() repository.FollowRepository             { return &followRepo{s} }
func (s *Store) Posts() repository.PostRepository                 { return &postRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepo{s} }
func (s *Store) Tokens() repository.TokenRepository               { return &tokenRepo{s} }

// SetNotificationErr makes notification writes fail until reset with nil.
func (s *Store) SetNotificationErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NotificationErr = err
}

// AllNotifications returns a copy of every stored notification.
func (s *Store) AllNotifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *userRepo) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.s.users {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]models.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (r *userRepo) GetSuggested(ctx context.Context, userID uuid.UUID, limit int) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	followed := make(map[uuid.UUID]bool)
	for _, e := range r.s.follows {
		if e.from == userID {
			followed[e.to] = true
		}
	}
	out := []models.User{}
	for id, u := range r.s.users {
		if id == userID || followed[id] {
			continue
		}
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type followRepo struct{ s *Store }

func (r *followRepo) Follow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.follows {
		if e.from == followerID && e.to == followingID {
			return false, nil
		}
	}
	r.s.follows = append(r.s.follows, edge{followerID, followingID})
	return true, nil
}

func (r *followRepo) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, e := range r.s.follows {
		if e.from == followerID && e.to == followingID {
			r.s.follows = append(r.s.follows[:i], r.s.follows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *followRepo) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.follows {
		if e.from == followerID && e.to == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *followRepo) GetFollowers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []uuid.UUID{}
	for _, e := range r.s.follows {
		if e.to == userID {
			ids = append(ids, e.from)
		}
	}
	return ids, nil
}

func (r *followRepo) GetFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []uuid.UUID{}
	for _, e := range r.s.follows {
		if e.from == userID {
			ids = append(ids, e.to)
		}
	}
	return ids, nil
}

type postRepo struct{ s *Store }

func (r *postRepo) Create(ctx context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.posts[post.ID] = *post
	r.s.postOrder = append(r.s.postOrder, post.ID)
	return nil
}

func (r *postRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *postRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.posts, id)

	likes := r.s.likes[:0]
	for _, e := range r.s.likes {
		if e.from != id {
			likes = append(likes, e)
		}
	}
	r.s.likes = likes

	comments := r.s.comments[:0]
	for _, c := range r.s.comments {
		if c.PostID != id {
			comments = append(comments, c)
		}
	}
	r.s.comments = comments

	for i := range r.s.notifications {
		if p := r.s.notifications[i].PostID; p != nil && *p == id {
			r.s.notifications[i].PostID = nil
		}
	}
	return nil
}

// newestFirst lists live posts matching keep, newest first with later inserts
// winning ties.
func (r *postRepo) newestFirst(keep func(models.Post) bool) []models.Post {
	out := []models.Post{}
	for i := len(r.s.postOrder) - 1; i >= 0; i-- {
		p, ok := r.s.posts[r.s.postOrder[i]]
		if ok && keep(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *postRepo) ListAll(ctx context.Context) ([]models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.newestFirst(func(models.Post) bool { return true }), nil
}

func (r *postRepo) ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		set[id] = true
	}
	return r.newestFirst(func(p models.Post) bool { return set[p.UserID] }), nil
}

func (r *postRepo) ListLikedBy(ctx context.Context, userID uuid.UUID) ([]models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	liked := make(map[uuid.UUID]bool)
	for _, e := range r.s.likes {
		if e.to == userID {
			liked[e.from] = true
		}
	}
	return r.newestFirst(func(p models.Post) bool { return liked[p.ID] }), nil
}

func (r *postRepo) AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.likes {
		if e.from == postID && e.to == userID {
			return false, nil
		}
	}
	r.s.likes = append(r.s.likes, edge{postID, userID})
	return true, nil
}

func (r *postRepo) RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, e := range r.s.likes {
		if e.from == postID && e.to == userID {
			r.s.likes = append(r.s.likes[:i], r.s.likes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *postRepo) GetLikes(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(postIDs))
	for _, id := range postIDs {
		want[id] = true
	}
	out := make(map[uuid.UUID][]uuid.UUID)
	for _, e := range r.s.likes {
		if want[e.from] {
			out[e.from] = append(out[e.from], e.to)
		}
	}
	return out, nil
}

func (r *postRepo) GetLikedPostIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []uuid.UUID{}
	for _, e := range r.s.likes {
		if e.to == userID {
			ids = append(ids, e.from)
		}
	}
	return ids, nil
}

func (r *postRepo) AddComment(ctx context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[comment.PostID]; !ok {
		return repository.ErrNotFound
	}
	r.s.comments = append(r.s.comments, *comment)
	return nil
}

func (r *postRepo) GetComments(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(postIDs))
	for _, id := range postIDs {
		want[id] = true
	}
	out := make(map[uuid.UUID][]models.Comment)
	for _, c := range r.s.comments {
		if want[c.PostID] {
			out[c.PostID] = append(out[c.PostID], c)
		}
	}
	return out, nil
}

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.NotificationErr != nil {
		return r.s.NotificationErr
	}
	r.s.notifications = append(r.s.notifications, *notification)
	return nil
}

func (r *notificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.notifications {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *notificationRepo) GetByRecipient(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Notification{}
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if n := r.s.notifications[i]; n.ToID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *notificationRepo) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.NotificationErr != nil {
		return r.s.NotificationErr
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i := range r.s.notifications {
		if n := &r.s.notifications[i]; n.ToID == userID && want[n.ID] {
			n.Read = true
		}
	}
	return nil
}

func (r *notificationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.NotificationErr != nil {
		return r.s.NotificationErr
	}
	for i, n := range r.s.notifications {
		if n.ID == id {
			r.s.notifications = append(r.s.notifications[:i], r.s.notifications[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *notificationRepo) DeleteAllForRecipient(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.NotificationErr != nil {
		return 0, r.s.NotificationErr
	}
	kept := r.s.notifications[:0]
	var deleted int64
	for _, n := range r.s.notifications {
		if n.ToID == userID {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	r.s.notifications = kept
	return deleted, nil
}

func (r *notificationRepo) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, n := range r.s.notifications {
		if n.ToID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ttl > 0 {
		r.s.revoked[tokenID] = time.Now().Add(ttl)
	}
	return nil
}

func (r *tokenRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	until, ok := r.s.revoked[tokenID]
	return ok && time.Now().Before(until), nil
}
