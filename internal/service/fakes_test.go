package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/BloggingApp/threadly/internal/model"
	"github.com/BloggingApp/threadly/internal/repository"
	"github.com/BloggingApp/threadly/internal/repository/postgres"
	"github.com/BloggingApp/threadly/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// store is an in-memory stand-in for the postgres repositories.
type store struct {
	mu          sync.Mutex
	clock       time.Time
	nextComment int64
	nextPost    int64
	comments    map[int64]*model.Comment
	posts       map[int64]*model.Post
	users       map[uuid.UUID]*model.CachedUser
	collections map[uuid.UUID]*model.BookmarkCollection
}

func newStore() *store {
	return &store{
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		comments:    map[int64]*model.Comment{},
		posts:       map[int64]*model.Post{},
		users:       map[uuid.UUID]*model.CachedUser{},
		collections: map[uuid.UUID]*model.BookmarkCollection{},
	}
}

func (s *store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func copyComment(c *model.Comment) *model.Comment {
	cp := *c
	cp.Upvoters = append([]uuid.UUID{}, c.Upvoters...)
	return &cp
}

func copyPost(p *model.Post) *model.Post {
	cp := *p
	cp.Upvoters = append([]uuid.UUID{}, p.Upvoters...)
	return &cp
}

// toggleMember mirrors the CASE toggle the postgres repositories run.
func toggleMember[T comparable](set []T, id T) ([]T, bool) {
	result := make([]T, 0, len(set)+1)
	for _, member := range set {
		if member != id {
			result = append(result, member)
		}
	}
	if len(result) == len(set) {
		return append(result, id), true
	}
	return result, false
}

type fakeCommentRepo struct{ *store }

func (r fakeCommentRepo) Create(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextComment++
	comment.ID = r.nextComment
	comment.Upvoters = []uuid.UUID{}
	comment.UpvoteCount = 0
	comment.CreatedAt = r.tick()
	r.comments[comment.ID] = &comment
	return copyComment(&comment), nil
}

func (r fakeCommentRepo) FindByID(ctx context.Context, id int64) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyComment(c), nil
}

func (r fakeCommentRepo) FindChildren(ctx context.Context, postID int64, parentID *int64, sortOpt model.SortOption) ([]*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []*model.Comment{}
	for _, c := range r.comments {
		if c.PostID == postID && c.SameParent(parentID) {
			result = append(result, copyComment(c))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if sortOpt == model.SortByUpvotes && a.UpvoteCount != b.UpvoteCount {
			return a.UpvoteCount > b.UpvoteCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return result, nil
}

func (r fakeCommentRepo) ToggleUpvote(ctx context.Context, postID int64, commentID int64, userID uuid.UUID) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[commentID]
	if !ok || c.PostID != postID {
		return nil, pgx.ErrNoRows
	}
	c.Upvoters, _ = toggleMember(c.Upvoters, userID)
	c.UpvoteCount = int64(len(c.Upvoters))
	return copyComment(c), nil
}

func (r fakeCommentRepo) Delete(ctx context.Context, postID int64, commentID int64, authorID uuid.UUID) (*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[commentID]
	if !ok || c.PostID != postID || c.AuthorID != authorID {
		return nil, pgx.ErrNoRows
	}
	delete(r.comments, commentID)
	return c, nil
}

type fakePostRepo struct{ *store }

func (r fakePostRepo) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPost++
	post.ID = r.nextPost
	post.Upvoters = []uuid.UUID{}
	post.CreatedAt = r.tick()
	post.UpdatedAt = post.CreatedAt
	r.posts[post.ID] = &post
	return copyPost(&post), nil
}

func (r fakePostRepo) full(p *model.Post) *model.FullPost {
	author := model.UserAuthor{}
	if u, ok := r.users[p.AuthorID]; ok {
		author.Username = u.Username
	}
	return &model.FullPost{Post: *copyPost(p), Author: author}
}

func (r fakePostRepo) FindByID(ctx context.Context, id int64) (*model.FullPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.full(p), nil
}

func (r fakePostRepo) FindFeed(ctx context.Context, limit int, offset int) ([]*model.FullPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []*model.FullPost{}
	for _, p := range r.posts {
		result = append(result, r.full(p))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Post.UpvoteCount > result[j].Post.UpvoteCount
	})
	return result, nil
}

func (r fakePostRepo) FindAuthorPosts(ctx context.Context, authorID uuid.UUID, limit int, offset int) ([]*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []*model.Post{}
	for _, p := range r.posts {
		if p.AuthorID == authorID {
			result = append(result, copyPost(p))
		}
	}
	return result, nil
}

func (r fakePostRepo) FindByIDs(ctx context.Context, ids []int64) ([]*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []*model.Post{}
	for _, id := range ids {
		if p, ok := r.posts[id]; ok {
			result = append(result, copyPost(p))
		}
	}
	return result, nil
}

func (r fakePostRepo) ToggleUpvote(ctx context.Context, postID int64, userID uuid.UUID) (*model.Post, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil, false, pgx.ErrNoRows
	}
	var added bool
	p.Upvoters, added = toggleMember(p.Upvoters, userID)
	p.UpvoteCount = int64(len(p.Upvoters))

	if u, ok := r.users[userID]; ok {
		mirror := []int64{}
		for _, id := range u.UpvotedPosts {
			if id != postID {
				mirror = append(mirror, id)
			}
		}
		if added {
			mirror = append(mirror, postID)
		}
		u.UpvotedPosts = mirror
	}
	return copyPost(p), added, nil
}

type fakeUserCacheRepo struct{ *store }

func (r fakeUserCacheRepo) Create(ctx context.Context, cachedUser model.CachedUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[cachedUser.ID]; ok {
		return nil
	}
	cachedUser.UpvotedPosts = []int64{}
	r.users[cachedUser.ID] = &cachedUser
	return nil
}

func (r fakeUserCacheRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	for field, value := range updates {
		str, _ := value.(string)
		switch field {
		case "username":
			u.Username = str
		case "display_name":
			u.DisplayName = str
		case "avatar_url":
			u.AvatarURL = str
		default:
			return postgres.ErrFieldsNotAllowedToUpdate
		}
	}
	return nil
}

func (r fakeUserCacheRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CachedUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	cp.UpvotedPosts = append([]int64{}, u.UpvotedPosts...)
	return &cp, nil
}

type fakeBookmarkRepo struct{ *store }

func (r fakeBookmarkRepo) nameTaken(ownerID uuid.UUID, name string, exceptID *uuid.UUID) bool {
	for _, c := range r.collections {
		if c.OwnerID == ownerID && c.Name == name && (exceptID == nil || c.ID != *exceptID) {
			return true
		}
	}
	return false
}

func (r fakeBookmarkRepo) Create(ctx context.Context, collection model.BookmarkCollection) (*model.BookmarkCollection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(collection.OwnerID, collection.Name, nil) {
		return nil, postgres.ErrUniqueViolation
	}
	collection.CreatedAt = r.tick()
	r.collections[collection.ID] = &collection
	cp := collection
	return &cp, nil
}

func (r fakeBookmarkRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BookmarkCollection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.collections[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	cp.Posts = append([]int64{}, c.Posts...)
	return &cp, nil
}

func (r fakeBookmarkRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.BookmarkCollection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []*model.BookmarkCollection{}
	for _, c := range r.collections {
		if c.OwnerID == ownerID {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r fakeBookmarkRepo) NameTaken(ctx context.Context, ownerID uuid.UUID, name string, exceptID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nameTaken(ownerID, name, exceptID), nil
}

func (r fakeBookmarkRepo) owned(id uuid.UUID, ownerID uuid.UUID) (*model.BookmarkCollection, error) {
	c, ok := r.collections[id]
	if !ok || c.OwnerID != ownerID {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (r fakeBookmarkRepo) Rename(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.owned(id, ownerID)
	if err != nil {
		return err
	}
	if r.nameTaken(ownerID, name, &id) {
		return postgres.ErrUniqueViolation
	}
	c.Name = name
	return nil
}

func (r fakeBookmarkRepo) AddPost(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, postID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.owned(id, ownerID)
	if err != nil {
		return false, err
	}
	if model.ContainsMember(c.Posts, postID) {
		return false, nil
	}
	c.Posts = append(c.Posts, postID)
	return true, nil
}

func (r fakeBookmarkRepo) RemovePost(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.owned(id, ownerID)
	if err != nil {
		return err
	}
	posts := []int64{}
	for _, p := range c.Posts {
		if p != postID {
			posts = append(posts, p)
		}
	}
	c.Posts = posts
	return nil
}

func (r fakeBookmarkRepo) Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.owned(id, ownerID); err != nil {
		return err
	}
	delete(r.collections, id)
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (c *fakeCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = string(b)
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := c.values[key]; ok {
			delete(c.values, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

type fakeFeed struct {
	mu        sync.Mutex
	subs      map[string][]chan struct{}
	published []string
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subs: map[string][]chan struct{}{}}
}

func (f *fakeFeed) Publish(ctx context.Context, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, channel)
	for _, ch := range f.subs[channel] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (f *fakeFeed) Subscribe(ctx context.Context, channel string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.subs[channel] = append(f.subs[channel], ch)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subs[channel]
		for i, sub := range subs {
			if sub == ch {
				f.subs[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

func (f *fakeFeed) publishedTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.published...)
}

type fakeMQ struct {
	mu        sync.Mutex
	published map[string][][]byte
	deliver   chan amqp.Delivery
}

func newFakeMQ() *fakeMQ {
	return &fakeMQ{
		published: map[string][][]byte{},
		deliver:   make(chan amqp.Delivery, 8),
	}
}

func (m *fakeMQ) Consume(queue string) (<-chan amqp.Delivery, error) {
	return m.deliver, nil
}

func (m *fakeMQ) PublishJSON(ctx context.Context, queue string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[queue] = append(m.published[queue], body)
	return nil
}

func (m *fakeMQ) messages(queue string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte{}, m.published[queue]...)
}

type testEnv struct {
	store *store
	cache *fakeCache
	feed  *fakeFeed
	mq    *fakeMQ
	svc   *Service
}

func newTestEnv() *testEnv {
	st := newStore()
	cache := newFakeCache()
	feed := newFakeFeed()
	mq := newFakeMQ()

	repo := &repository.Repository{
		Postgres: &postgres.PostgresRepository{
			Post:      fakePostRepo{st},
			Comment:   fakeCommentRepo{st},
			UserCache: fakeUserCacheRepo{st},
			Bookmark:  fakeBookmarkRepo{st},
		},
		Redis: &redisrepo.RedisRepository{
			Default:    cache,
			ChangeFeed: feed,
		},
	}

	return &testEnv{
		store: st,
		cache: cache,
		feed:  feed,
		mq:    mq,
		svc:   New(zap.NewNop(), repo, mq),
	}
}

func (e *testEnv) user(name string) *model.CachedUser {
	u := model.CachedUser{ID: uuid.New(), Username: name}
	_ = fakeUserCacheRepo{e.store}.Create(context.Background(), u)
	return &u
}
