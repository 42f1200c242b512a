package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mkuznet/groupblog/internal/auth"
	"github.com/mkuznet/groupblog/internal/cache"
	"github.com/mkuznet/groupblog/internal/database"
	"github.com/mkuznet/groupblog/internal/models"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *cache.Snapshots) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	snapshots := cache.NewSnapshots(SnapshotTTL)
	return NewRouter(db, snapshots, nil), db, snapshots
}

func signup(t *testing.T, db *gorm.DB, username string) (models.User, string) {
	t.Helper()

	hashed, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hashed,
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := auth.SignToken(user.ID)
	require.NoError(t, err)
	return user, token
}

func do(r *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func seedPost(t *testing.T, db *gorm.DB, author models.User, text string, at time.Time) models.Post {
	t.Helper()

	post := models.Post{Text: text, AuthorID: author.ID, CreatedAt: at}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/definitely/not/a/route", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnonymousProtectedRouteRedirectsToLogin(t *testing.T) {
	r, _, _ := newTestRouter(t)

	for _, path := range []string{"/create", "/follow", "/posts/1/edit"} {
		w := do(r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/auth/login", w.Header().Get("Location"), path)
	}
}

func TestSignupAndLogin(t *testing.T) {
	r, db, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/auth/signup", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotEmpty(t, decode(t, w)["token"])

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// duplicate username is rejected by the unique index, not a pre-read
	w = do(r, http.MethodPost, "/auth/signup", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// duplicate email likewise
	w = do(r, http.MethodPost, "/auth/signup", "", gin.H{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)

	w = do(r, http.MethodPost, "/auth/login", "", gin.H{
		"username": "alice",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// Scenario: authenticated create redirects to the author's profile and the
// post appears first in that profile's feed.
func TestCreatePost(t *testing.T) {
	r, db, _ := newTestRouter(t)
	user, token := signup(t, db, "bob")
	seedPost(t, db, user, "older post", time.Now().Add(-time.Hour))

	w := do(r, http.MethodPost, "/create", token, gin.H{"text": "hello"})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/bob", w.Header().Get("Location"))

	var count int64
	db.Model(&models.Post{}).Count(&count)
	assert.Equal(t, int64(2), count)

	var latest models.Post
	require.NoError(t, db.Order("id DESC").First(&latest).Error)
	assert.Equal(t, user.ID, latest.AuthorID)

	w = do(r, http.MethodGet, "/profile/bob", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	posts := decode(t, w)["posts"].([]any)
	require.NotEmpty(t, posts)
	first := posts[0].(map[string]any)
	assert.Equal(t, "hello", first["text"])
	assert.Equal(t, "bob", first["author"])
}

func TestCreatePostRequiresText(t *testing.T) {
	r, db, _ := newTestRouter(t)
	_, token := signup(t, db, "bob")

	w := do(r, http.MethodPost, "/create", token, gin.H{"text": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.Model(&models.Post{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreatePostRejectsUnknownGroup(t *testing.T) {
	r, db, _ := newTestRouter(t)
	_, token := signup(t, db, "bob")

	groupID := 99
	w := do(r, http.MethodPost, "/create", token, gin.H{"text": "hi", "group_id": groupID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/create", token, gin.H{"text": "hi", "group": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// The post form takes its group either by id or by slug.
func TestCreatePostWithGroupSlug(t *testing.T) {
	r, db, _ := newTestRouter(t)
	_, token := signup(t, db, "bob")

	group := models.Group{Title: "Cat pictures", Slug: "cats"}
	require.NoError(t, db.Create(&group).Error)

	w := do(r, http.MethodPost, "/create", token, gin.H{"text": "meow", "group": "cats"})
	require.Equal(t, http.StatusFound, w.Code)

	var stored models.Post
	require.NoError(t, db.Order("id DESC").First(&stored).Error)
	require.NotNil(t, stored.GroupID)
	assert.Equal(t, group.ID, *stored.GroupID)
}

func TestEditPostByAuthor(t *testing.T) {
	r, db, _ := newTestRouter(t)
	user, token := signup(t, db, "bob")
	post := seedPost(t, db, user, "original", time.Now())

	path := fmt.Sprintf("/posts/%d/edit", post.ID)

	w := do(r, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	form := decode(t, w)["form"].(map[string]any)
	assert.Equal(t, "original", form["text"])

	w = do(r, http.MethodPost, path, token, gin.H{"text": "edited"})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d", post.ID), w.Header().Get("Location"))

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, "edited", stored.Text)
}

// A non-author editing a post is silently redirected to the detail view
// and the stored post never changes.
func TestEditPostByNonAuthor(t *testing.T) {
	r, db, _ := newTestRouter(t)
	alice, _ := signup(t, db, "alice")
	_, bobToken := signup(t, db, "bob")
	post := seedPost(t, db, alice, "alice's post", time.Now())

	path := fmt.Sprintf("/posts/%d/edit", post.ID)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := do(r, method, path, bobToken, gin.H{"text": "hijacked"})
		assert.Equal(t, http.StatusFound, w.Code, method)
		assert.Equal(t, fmt.Sprintf("/posts/%d", post.ID), w.Header().Get("Location"), method)
	}

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, "alice's post", stored.Text)
	assert.Equal(t, alice.ID, stored.AuthorID)
}

func TestEditMissingPost(t *testing.T) {
	r, db, _ := newTestRouter(t)
	_, token := signup(t, db, "bob")

	w := do(r, http.MethodPost, "/posts/404/edit", token, gin.H{"text": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Scenario: anonymous GET of an existing post returns the post's text and
// its comments newest first.
func TestPostDetailWithComments(t *testing.T) {
	r, db, _ := newTestRouter(t)
	alice, _ := signup(t, db, "alice")
	post := seedPost(t, db, alice, "a fine post", time.Now().Add(-time.Hour))

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		comment := models.Comment{
			Text:      fmt.Sprintf("comment %d", i),
			AuthorID:  alice.ID,
			PostID:    &post.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(&comment).Error)
	}

	w := do(r, http.MethodGet, fmt.Sprintf("/posts/%d", post.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	payload := decode(t, w)
	assert.Equal(t, "a fine post", payload["post"].(map[string]any)["text"])

	comments := payload["comments"].([]any)
	require.Len(t, comments, 3)
	assert.Equal(t, "comment 2", comments[0].(map[string]any)["text"])
	assert.Equal(t, "comment 0", comments[2].(map[string]any)["text"])

	w = do(r, http.MethodGet, "/posts/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddComment(t *testing.T) {
	r, db, _ := newTestRouter(t)
	alice, _ := signup(t, db, "alice")
	_, bobToken := signup(t, db, "bob")
	post := seedPost(t, db, alice, "post", time.Now())

	path := fmt.Sprintf("/posts/%d/comment", post.ID)

	w := do(r, http.MethodPost, path, bobToken, gin.H{"text": "nice one"})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d", post.ID), w.Header().Get("Location"))

	var count int64
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// empty text creates nothing
	w = do(r, http.MethodPost, path, bobToken, gin.H{"text": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// text over the 150-character cap creates nothing either
	w = do(r, http.MethodPost, path, bobToken, gin.H{"text": strings.Repeat("x", 151)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// exactly 150 characters is still accepted
	w = do(r, http.MethodPost, path, bobToken, gin.H{"text": strings.Repeat("x", 150)})
	assert.Equal(t, http.StatusFound, w.Code)
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(2), count)

	// anonymous callers are sent to login, nothing is created
	w = do(r, http.MethodPost, path, "", gin.H{"text": "drive-by"})
	assert.Equal(t, http.StatusFound, w.Code)
	db.Model(&models.Comment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

// Scenario: following the same author twice leaves exactly one row.
func TestFollowIsIdempotent(t *testing.T) {
	r, db, _ := newTestRouter(t)
	alice, _ := signup(t, db, "alice")
	bob, bobToken := signup(t, db, "bob")

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodGet, "/profile/alice/follow", bobToken, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/profile/alice", w.Header().Get("Location"))
	}

	var count int64
	db.Model(&models.Follow{}).
		Where("follower_id = ? AND author_id = ?", bob.ID, alice.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSelfFollowCreatesNothing(t *testing.T) {
	r, db, _ := newTestRouter(t)
	_, token := signup(t, db, "bob")

	w := do(r, http.MethodGet, "/profile/bob/follow", token, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/bob", w.Header().Get("Location"))

	var count int64
	db.Model(&models.Follow{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUnfollow(t *testing.T) {
	r, db, _ := newTestRouter(t)
	alice, _ := signup(t, db, "alice")
	bob, bobToken := signup(t, db, "bob")
	require.NoError(t, db.Create(&models.Follow{FollowerID: bob.ID, AuthorID: alice.ID}).Error)

	w := do(r, http.MethodGet, "/profile/alice/unfollow", bobToken, nil)
	assert.Equal(t, http.StatusFound, w.Code)

	var count int64
	db.Model(&models.Follow{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// unfollowing again is a quiet no-op
	w = do(r, http.MethodGet, "/profile/alice/unfollow", bobToken, nil)
	assert.Equal(t, http.StatusFound, w.Code)

	// unknown author is still not found
	w = do(r, http.MethodGet, "/profile/ghost/unfollow", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileFeedReportsFollowing(t *testing.T) {
	r, db, _ := newTestRouter(t)
	alice, _ := signup(t, db, "alice")
	bob, bobToken := signup(t, db, "bob")
	require.NoError(t, db.Create(&models.Follow{FollowerID: bob.ID, AuthorID: alice.ID}).Error)

	w := do(r, http.MethodGet, "/profile/alice", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["following"])

	w = do(r, http.MethodGet, "/profile/alice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["following"])
}

func TestFollowingFeed(t *testing.T) {
	r, db, _ := newTestRouter(t)
	alice, _ := signup(t, db, "alice")
	_, bobToken := signup(t, db, "bob")
	seedPost(t, db, alice, "from alice", time.Now())

	// nothing followed yet: empty feed, not an error
	w := do(r, http.MethodGet, "/follow", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["posts"])

	do(r, http.MethodGet, "/profile/alice/follow", bobToken, nil)

	w = do(r, http.MethodGet, "/follow", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	posts := decode(t, w)["posts"].([]any)
	require.Len(t, posts, 1)
	assert.Equal(t, "from alice", posts[0].(map[string]any)["text"])
}

// Two home-feed requests within the snapshot window return byte-identical
// bodies even when a post lands between them; clearing the cache makes the
// next request reflect the new post.
func TestHomeFeedSnapshotCache(t *testing.T) {
	r, db, snapshots := newTestRouter(t)
	alice, _ := signup(t, db, "alice")
	seedPost(t, db, alice, "first", time.Now().Add(-time.Minute))

	before := do(r, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, before.Code)

	seedPost(t, db, alice, "second", time.Now())

	cached := do(r, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, cached.Code)
	assert.Equal(t, before.Body.Bytes(), cached.Body.Bytes())

	snapshots.Clear()

	fresh := do(r, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, fresh.Code)
	posts := decode(t, fresh)["posts"].([]any)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].(map[string]any)["text"])
}

func TestGroupLifecycle(t *testing.T) {
	r, db, _ := newTestRouter(t)
	user, token := signup(t, db, "admin")

	w := do(r, http.MethodPost, "/groups", token, gin.H{
		"title":       "Cat pictures",
		"slug":        "cats",
		"description": "cats only",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// duplicate slug rejected
	w = do(r, http.MethodPost, "/groups", token, gin.H{"title": "Cats again", "slug": "cats"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var group models.Group
	require.NoError(t, db.Where("slug = ?", "cats").First(&group).Error)
	post := models.Post{Text: "meow", AuthorID: user.ID, GroupID: &group.ID}
	require.NoError(t, db.Create(&post).Error)

	w = do(r, http.MethodGet, "/group/cats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["posts"], 1)

	w = do(r, http.MethodGet, "/group/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// deleting the group orphans the post, it does not delete it
	w = do(r, http.MethodDelete, "/groups/cats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Nil(t, stored.GroupID)
}
