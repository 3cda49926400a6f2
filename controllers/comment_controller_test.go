package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sosmed/models"
)

func addComment(t *testing.T, r http.Handler, token string, postID uint, content string) models.Comment {
	t.Helper()

	w, env := doJSON(t, r, http.MethodPost, fmt.Sprintf("/posts/%d/comment", postID),
		map[string]string{"content": content}, token)
	require.Equal(t, http.StatusCreated, w.Code, "add comment response: %s", w.Body.String())

	var data struct {
		Comment models.Comment `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Comment
}

func addReply(t *testing.T, r http.Handler, token string, commentID uint, content string) models.Comment {
	t.Helper()

	w, env := doJSON(t, r, http.MethodPost, fmt.Sprintf("/comments/%d/reply", commentID),
		map[string]string{"content": content}, token)
	require.Equal(t, http.StatusCreated, w.Code, "add reply response: %s", w.Body.String())

	var data struct {
		Comment models.Comment `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Comment
}

func listComments(t *testing.T, r http.Handler, token string, postID uint) []models.Comment {
	t.Helper()

	w, env := doJSON(t, r, http.MethodGet, fmt.Sprintf("/posts/%d/comments", postID), nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var tree []models.Comment
	require.NoError(t, json.Unmarshal(env.Data, &tree))
	return tree
}

func TestCommentOnMissingPost(t *testing.T) {
	r, _ := newTestRouter(t)
	u := registerUser(t, r, "lost commenter", "lost@example.com", "JK", "01")

	w, _ := doJSON(t, r, http.MethodPost, "/posts/777/comment", map[string]string{"content": "hello?"}, u.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReplyToMissingComment(t *testing.T) {
	r, _ := newTestRouter(t)
	u := registerUser(t, r, "lost replier", "lostreply@example.com", "JK", "01")

	w, _ := doJSON(t, r, http.MethodPost, "/comments/777/reply", map[string]string{"content": "hello?"}, u.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	u := registerUser(t, r, "silent commenter", "silent@example.com", "JK", "01")
	id := createPost(t, r, u.Token, "quiet post", nil)

	w, _ := doJSON(t, r, http.MethodPost, fmt.Sprintf("/posts/%d/comment", id),
		map[string]string{"content": "   "}, u.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/posts/%d/comment", id),
		map[string]string{"content": strings.Repeat("x", maxCommentLength+1)}, u.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentThreading(t *testing.T) {
	r, _ := newTestRouter(t)
	author := registerUser(t, r, "thread author", "thread@example.com", "JK", "01")
	replier := registerUser(t, r, "thread replier", "replier@example.com", "JB", "02")

	postID := createPost(t, r, author.Token, "discuss", nil)

	root := addComment(t, r, author.Token, postID, "top level")
	second := addComment(t, r, replier.Token, postID, "another top level")
	reply := addReply(t, r, replier.Token, root.ID, "reply to top")
	nested := addReply(t, r, author.Token, reply.ID, "nested reply")

	assert.Equal(t, postID, reply.PostID)
	assert.Equal(t, postID, nested.PostID)

	tree := listComments(t, r, author.Token, postID)
	require.Len(t, tree, 2)
	assert.Equal(t, root.ID, tree[0].ID)
	assert.Equal(t, second.ID, tree[1].ID)

	require.NotNil(t, tree[0].Author)
	assert.Equal(t, "thread author", tree[0].Author.Name)

	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, reply.ID, tree[0].Replies[0].ID)
	assert.Equal(t, "thread replier", tree[0].Replies[0].Author.Name)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, nested.ID, tree[0].Replies[0].Replies[0].ID)
}

func TestDeleteCommentCascadesReplies(t *testing.T) {
	r, db := newTestRouter(t)
	author := registerUser(t, r, "cascade author", "cascade@example.com", "JK", "01")
	replier := registerUser(t, r, "cascade replier", "cascadereply@example.com", "JK", "01")

	postID := createPost(t, r, author.Token, "short lived thread", nil)
	root := addComment(t, r, author.Token, postID, "root")
	reply := addReply(t, r, replier.Token, root.ID, "reply")
	keep := addComment(t, r, replier.Token, postID, "survivor")

	// Only the comment's author may remove it.
	w, _ := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/comments/%d", root.ID), nil, replier.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/comments/%d", root.ID), nil, author.Token)
	require.Equal(t, http.StatusOK, w.Code)

	var ids []uint
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &ids).Error)
	assert.ElementsMatch(t, []uint{keep.ID}, ids)
	assert.NotContains(t, ids, reply.ID)

	tree := listComments(t, r, author.Token, postID)
	require.Len(t, tree, 1)
	assert.Equal(t, keep.ID, tree[0].ID)
}

func TestDeleteMissingComment(t *testing.T) {
	r, _ := newTestRouter(t)
	u := registerUser(t, r, "void deleter", "void@example.com", "JK", "01")

	w, _ := doJSON(t, r, http.MethodDelete, "/comments/31337", nil, u.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
