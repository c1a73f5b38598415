// Package httpapi implements the REST surface of §6.2: question CRUD
// and the administrator commands, each going through the same
// room.Room methods — and therefore the same room.Room.WithLock
// critical section — as the equivalent socket command.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trivion/audit"
	"trivion/auth"
	"trivion/errs"
	"trivion/logging"
	"trivion/member"
	"trivion/question"
	"trivion/room"
)

// Handler groups the dependencies every route needs.
type Handler struct {
	rooms  *room.Registry
	issuer *auth.Issuer
	audit  *audit.Writer
	log    *logging.Logger
}

// New builds a Handler.
func New(rooms *room.Registry, issuer *auth.Issuer, auditWriter *audit.Writer, log *logging.Logger) *Handler {
	return &Handler{rooms: rooms, issuer: issuer, audit: auditWriter, log: log}
}

// Register wires every §6.2 route onto router.
func (h *Handler) Register(router *gin.Engine) {
	api := router.Group("/api/rooms/:code")
	api.GET("/questions", h.authenticated(), h.listQuestions)
	api.POST("/questions", h.authenticated(), h.addQuestion)
	api.POST("/game/start", h.authenticated(), h.start)
	api.POST("/game/next", h.authenticated(), h.next)
	api.POST("/game/end", h.authenticated(), h.end)
	api.POST("/game/back-to-lobby", h.authenticated(), h.backToLobby)
	api.GET("/game/state", h.state)
	api.DELETE("", h.authenticated(), h.destroyRoom)
	api.DELETE("/members/:id", h.authenticated(), h.kickMember)
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func fail(c *gin.Context, status int, err error) {
	msg := err.Error()
	if e, ok := err.(*errs.Error); ok {
		msg = e.Message
	}
	c.JSON(status, gin.H{"status": "error", "message": msg})
}

// findRoom resolves :code or writes a RoomNotFound response.
func (h *Handler) findRoom(c *gin.Context) (*room.Room, bool) {
	r, ok := h.rooms.Find(c.Param("code"))
	if !ok {
		fail(c, http.StatusNotFound, errs.ErrRoomNotFound)
		return nil, false
	}
	return r, true
}

// actorFromClaims resolves the bearer token's member within r, once
// authenticated() has already validated the token and bound it to
// this room.
func (h *Handler) actorFromClaims(c *gin.Context, r *room.Room) (*member.Member, bool) {
	claims := c.MustGet(claimsKey).(*auth.Claims)
	id, err := uuid.Parse(claims.MemberID)
	if err != nil {
		fail(c, http.StatusUnauthorized, errs.ErrNotAuthorized)
		return nil, false
	}
	actor, ok := r.MemberByID(id)
	if !ok {
		fail(c, http.StatusUnauthorized, errs.ErrNotAuthorized)
		return nil, false
	}
	return actor, true
}

func (h *Handler) listQuestions(c *gin.Context) {
	r, ok := h.findRoom(c)
	if !ok {
		return
	}
	actor, ok := h.actorFromClaims(c, r)
	if !ok {
		return
	}
	if actor.Role != member.Administrator {
		fail(c, http.StatusForbidden, errs.ErrNotAuthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "questions": r.Questions()})
}

type addQuestionRequest struct {
	Text      string    `json:"text"`
	Options   [4]string `json:"options"`
	Correct   int       `json:"correct"`
	TimeLimit int       `json:"time_limit"`
}

func (h *Handler) addQuestion(c *gin.Context) {
	r, found := h.findRoom(c)
	if !found {
		return
	}
	actor, found := h.actorFromClaims(c, r)
	if !found {
		return
	}
	var req addQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	q := question.Question{Text: req.Text, Options: req.Options, Correct: req.Correct, DeadlineSeconds: req.TimeLimit}
	if err := r.AddQuestion(actor, q); err != nil {
		status := http.StatusBadRequest
		if errs.Of(err) == errs.NotAuthorized {
			status = http.StatusForbidden
		}
		fail(c, status, err)
		return
	}
	h.audit.Log(audit.Entry{Room: r.Code, Actor: actor.ID.String(), Action: "add_question", Outcome: "ok"})
	ok(c)
}

func (h *Handler) runAdminCommand(c *gin.Context, action string, run func(r *room.Room, actor *member.Member) error) {
	r, found := h.findRoom(c)
	if !found {
		return
	}
	actor, found := h.actorFromClaims(c, r)
	if !found {
		return
	}
	if err := run(r, actor); err != nil {
		status := http.StatusConflict
		if errs.Of(err) == errs.NotAuthorized {
			status = http.StatusForbidden
		}
		fail(c, status, err)
		return
	}
	h.audit.Log(audit.Entry{Room: r.Code, Actor: actor.ID.String(), Action: action, Outcome: "ok"})
	ok(c)
}

func (h *Handler) start(c *gin.Context) {
	h.runAdminCommand(c, "start_game", func(r *room.Room, actor *member.Member) error { return r.Start(actor) })
}

func (h *Handler) next(c *gin.Context) {
	h.runAdminCommand(c, "next", func(r *room.Room, actor *member.Member) error { return r.Next(actor) })
}

func (h *Handler) end(c *gin.Context) {
	h.runAdminCommand(c, "end_game", func(r *room.Room, actor *member.Member) error { return r.End(actor) })
}

func (h *Handler) backToLobby(c *gin.Context) {
	h.runAdminCommand(c, "back_to_lobby", func(r *room.Room, actor *member.Member) error { return r.NextGame(actor) })
}

func (h *Handler) state(c *gin.Context) {
	r, ok := h.findRoom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": r.State()})
}

func (h *Handler) destroyRoom(c *gin.Context) {
	r, found := h.findRoom(c)
	if !found {
		return
	}
	actor, found := h.actorFromClaims(c, r)
	if !found {
		return
	}
	if actor.Role != member.Administrator {
		fail(c, http.StatusForbidden, errs.ErrNotAuthorized)
		return
	}
	h.rooms.Destroy(r.Code)
	h.audit.Log(audit.Entry{Room: r.Code, Actor: actor.ID.String(), Action: "destroy_room", Outcome: "ok"})
	ok(c)
}

func (h *Handler) kickMember(c *gin.Context) {
	r, found := h.findRoom(c)
	if !found {
		return
	}
	actor, found := h.actorFromClaims(c, r)
	if !found {
		return
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, errs.New(errs.RoomNotFound, "invalid member id"))
		return
	}
	if err := r.Kick(actor, targetID); err != nil {
		status := http.StatusConflict
		if errs.Of(err) == errs.NotAuthorized {
			status = http.StatusForbidden
		}
		fail(c, status, err)
		return
	}
	h.audit.Log(audit.Entry{Room: r.Code, Actor: actor.ID.String(), Action: "kick_member", Outcome: "ok"})
	ok(c)
}
