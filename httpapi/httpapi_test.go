package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivion/audit"
	"trivion/auth"
	"trivion/broadcast"
	"trivion/logging"
	"trivion/member"
	"trivion/question"
	"trivion/room"
)

func newTestHandler(t *testing.T) (*Handler, *room.Registry, *auth.Issuer) {
	gin.SetMode(gin.TestMode)
	bus := broadcast.New(nil)
	rooms := room.New(bus, logging.Nop())
	issuer, err := auth.NewIssuer("test-secret")
	require.NoError(t, err)
	auditWriter, err := audit.NewWriter(nil, logging.Nop())
	require.NoError(t, err)
	return New(rooms, issuer, auditWriter, logging.Nop()), rooms, issuer
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGameStateIsPublicNoAuthRequired(t *testing.T) {
	h, rooms, _ := newTestHandler(t)
	r, err := rooms.Create("Trivia Night", true, "")
	require.NoError(t, err)

	router := gin.New()
	h.Register(router)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+r.Code+"/game/state", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestGameStateUnknownRoomNotFound(t *testing.T) {
	h, _, _ := newTestHandler(t)
	router := gin.New()
	h.Register(router)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/NOPE00/game/state", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", decodeBody(t, w)["status"])
}

func TestStartGameWithoutBearerTokenUnauthorized(t *testing.T) {
	h, rooms, _ := newTestHandler(t)
	r, err := rooms.Create("Trivia Night", true, "")
	require.NoError(t, err)

	router := gin.New()
	h.Register(router)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/"+r.Code+"/game/start", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStartGameAsNonAdminForbidden(t *testing.T) {
	h, rooms, issuer := newTestHandler(t)
	r, err := rooms.Create("Trivia Night", true, "")
	require.NoError(t, err)
	_, err = r.Join("Host", member.Administrator, "", nil)
	require.NoError(t, err)
	player, err := r.Join("Alice", member.Player, "", nil)
	require.NoError(t, err)

	tok, err := issuer.Issue(r.Code, player)
	require.NoError(t, err)

	router := gin.New()
	h.Register(router)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/"+r.Code+"/game/start", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStartGameAsAdminSucceeds(t *testing.T) {
	h, rooms, issuer := newTestHandler(t)
	r, err := rooms.Create("Trivia Night", true, "")
	require.NoError(t, err)
	admin, err := r.Join("Host", member.Administrator, "", nil)
	require.NoError(t, err)
	_, err = r.Join("Alice", member.Player, "", nil)
	require.NoError(t, err)
	q := sampleQuestion()
	require.NoError(t, r.AddQuestion(admin, q))

	tok, err := issuer.Issue(r.Code, admin)
	require.NoError(t, err)

	router := gin.New()
	h.Register(router)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/"+r.Code+"/game/start", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestStartGameTokenFromAnotherRoomRejected(t *testing.T) {
	h, rooms, issuer := newTestHandler(t)
	r1, err := rooms.Create("Room One", true, "")
	require.NoError(t, err)
	r2, err := rooms.Create("Room Two", true, "")
	require.NoError(t, err)
	admin1, err := r1.Join("Host", member.Administrator, "", nil)
	require.NoError(t, err)

	tok, err := issuer.Issue(r1.Code, admin1)
	require.NoError(t, err)

	router := gin.New()
	h.Register(router)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/"+r2.Code+"/game/start", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAddQuestionThenListAsAdmin(t *testing.T) {
	h, rooms, issuer := newTestHandler(t)
	r, err := rooms.Create("Trivia Night", true, "")
	require.NoError(t, err)
	admin, err := r.Join("Host", member.Administrator, "", nil)
	require.NoError(t, err)

	tok, err := issuer.Issue(r.Code, admin)
	require.NoError(t, err)

	router := gin.New()
	h.Register(router)

	body, _ := json.Marshal(addQuestionRequest{
		Text: "2+2", Options: [4]string{"3", "4", "5", "6"}, Correct: 1, TimeLimit: 10,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/"+r.Code+"/questions", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/api/rooms/"+r.Code+"/questions", nil)
	req2.Header.Set("Authorization", "Bearer "+tok)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	assert.Equal(t, http.StatusOK, w2.Code)
	resp := decodeBody(t, w2)
	questions, ok := resp["questions"].([]any)
	require.True(t, ok)
	assert.Len(t, questions, 1)
}

func TestKickMemberAsAdmin(t *testing.T) {
	h, rooms, issuer := newTestHandler(t)
	r, err := rooms.Create("Trivia Night", true, "")
	require.NoError(t, err)
	admin, err := r.Join("Host", member.Administrator, "", nil)
	require.NoError(t, err)
	alice, err := r.Join("Alice", member.Player, "", nil)
	require.NoError(t, err)

	tok, err := issuer.Issue(r.Code, admin)
	require.NoError(t, err)

	router := gin.New()
	h.Register(router)

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/"+r.Code+"/members/"+alice.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	_, stillThere := r.MemberByID(alice.ID)
	assert.False(t, stillThere)
}

func sampleQuestion() question.Question {
	return question.Question{
		Text:            "2+2",
		Options:         [4]string{"3", "4", "5", "6"},
		Correct:         1,
		DeadlineSeconds: 10,
	}
}
