package transport

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/zishang520/socket.io/v2/socket"

	"trivion/audit"
	"trivion/errs"
	"trivion/member"
	"trivion/room"
)

// session is the per-connection state a socket accumulates as it
// moves through list_rooms -> create_room/join_room -> in-room
// commands. It lives only as long as the underlying socket.
type session struct {
	conn     *Connection
	sock     *socket.Socket
	hb       *heartbeat
	room     *room.Room
	memberID uuid.UUID
}

func decode(args []any, out any) error {
	if len(args) == 0 {
		return errs.New(errs.NameInvalid, "missing payload")
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// sendError emits a targeted error event to the originating
// connection only, per the "errors... returned as targeted error
// events to the originating connection" policy.
func (s *session) sendError(err error) {
	msg := err.Error()
	if e, ok := err.(*errs.Error); ok {
		msg = e.Message
	}
	_ = s.conn.Send(TagError, ErrorPayload{Message: msg})
}

func (s *Server) registerHandlers(sock *socket.Socket) {
	sess := &session{conn: NewConnection(sock), sock: sock}
	sess.hb = startHeartbeat(sock, func() { s.handleHeartbeatTimeout(sess) })

	sock.On(TagListRooms, func(args ...any) {
		sess.conn.Send(TagAvailableRooms, availableRoomsPayload{Rooms: s.rooms.ListPublic()})
	})

	sock.On(TagCreateRoom, func(args ...any) { s.handleCreateRoom(sess, args) })
	sock.On(TagJoinRoom, func(args ...any) { s.handleJoinRoom(sess, args) })
	sock.On(TagLeaveRoom, func(args ...any) { s.handleLeaveRoom(sess) })
	sock.On(TagReconnect, func(args ...any) { s.handleReconnect(sess, args) })
	sock.On(TagAnswer, func(args ...any) { s.handleAnswer(sess, args) })
	sock.On(TagGetState, func(args ...any) { s.handleGetState(sess) })
	sock.On(TagPongHeartbeat, func(args ...any) { sess.hb.pong() })

	sock.On(TagStartGame, func(args ...any) { s.handleAdminCommand(sess, TagStartGame) })
	sock.On(TagNext, func(args ...any) { s.handleAdminCommand(sess, TagNext) })
	sock.On(TagBackToLobby, func(args ...any) { s.handleAdminCommand(sess, TagBackToLobby) })
	sock.On(TagEndGame, func(args ...any) { s.handleAdminCommand(sess, TagEndGame) })
	sock.On(TagKickMember, func(args ...any) { s.handleKickMember(sess, args) })

	sock.On("disconnecting", func(args ...any) { s.handleDisconnecting(sess) })
}

type availableRoomsPayload struct {
	Rooms []room.Summary `json:"rooms"`
}

type roomCreatedPayload struct {
	Room string `json:"room"`
	Code string `json:"code"`
}

type welcomePayload struct {
	Member any    `json:"member"`
	Room   string `json:"room"`
	State  any    `json:"state"`
	Token  string `json:"token"`
}

func (s *Server) welcome(sess *session, m *member.Member) {
	token, err := s.issuer.Issue(sess.room.Code, m)
	if err != nil {
		s.log.Errorw("issuing member token", "error", err)
	}
	sess.conn.Send(TagWelcome, welcomePayload{
		Member: m.View(),
		Room:   sess.room.Code,
		State:  sess.room.State(),
		Token:  token,
	})
}

func (s *Server) handleCreateRoom(sess *session, args []any) {
	var req CreateRoomRequest
	if err := decode(args, &req); err != nil {
		sess.sendError(err)
		return
	}
	r, err := s.rooms.Create(req.Name, req.Public, req.Password)
	if err != nil {
		sess.sendError(err)
		return
	}
	m, err := r.Join(req.AdminName, member.Administrator, req.Password, sess.conn)
	if err != nil {
		sess.sendError(err)
		return
	}
	sess.room = r
	sess.memberID = m.ID
	sess.conn.Send(TagRoomCreated, roomCreatedPayload{Room: r.Name, Code: r.Code})
	s.welcome(sess, m)
	s.audit.Log(audit.Entry{Room: r.Code, Actor: m.ID.String(), Action: "create_room", Outcome: "ok"})
}

func (s *Server) handleJoinRoom(sess *session, args []any) {
	var req JoinRoomRequest
	if err := decode(args, &req); err != nil {
		sess.sendError(err)
		return
	}
	r, ok := s.rooms.Find(req.Code)
	if !ok {
		sess.sendError(errs.ErrRoomNotFound)
		return
	}
	role := member.Player
	if req.AsAdmin {
		role = member.Administrator
	}
	m, err := r.Join(req.Name, role, req.Password, sess.conn)
	if err != nil {
		sess.sendError(err)
		return
	}
	sess.room = r
	sess.memberID = m.ID
	s.welcome(sess, m)
}

func (s *Server) handleLeaveRoom(sess *session) {
	if sess.room == nil {
		return
	}
	r := sess.room
	r.Leave(sess.memberID)
	sess.room, sess.memberID = nil, uuid.Nil
}

type reconnectSuccessPayload struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	RoomCode string `json:"room_code"`
	Score    int    `json:"score"`
	Waiting  bool   `json:"waiting"`
}

func (s *Server) handleReconnect(sess *session, args []any) {
	var req ReconnectRequest
	if err := decode(args, &req); err != nil {
		sess.conn.Send(TagReconnectFailed, nil)
		return
	}
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		sess.conn.Send(TagReconnectFailed, nil)
		return
	}
	code := roomCodeFromHandshake(sess.sock)
	r, ok := s.rooms.Find(code)
	if !ok {
		sess.conn.Send(TagReconnectFailed, nil)
		return
	}
	m, err := r.Reconnect(memberID, sess.conn)
	if err != nil {
		sess.conn.Send(TagReconnectFailed, nil)
		return
	}
	sess.room = r
	sess.memberID = memberID
	sess.conn.Send(TagReconnectSuccess, reconnectSuccessPayload{
		MemberID: m.ID.String(), Name: m.Name, RoomCode: r.Code, Score: m.Score, Waiting: m.Waiting,
	})
	sess.conn.Send(TagState, r.State())
}

func (s *Server) handleAnswer(sess *session, args []any) {
	if sess.room == nil {
		sess.sendError(errs.ErrNotConnected)
		return
	}
	var req AnswerRequest
	if err := decode(args, &req); err != nil {
		sess.sendError(err)
		return
	}
	actor, ok := sess.room.MemberByID(sess.memberID)
	if !ok {
		sess.sendError(errs.ErrNotConnected)
		return
	}
	if err := sess.room.SubmitAnswer(actor, req.Choice, req.Timestamp); err != nil {
		sess.sendError(err)
	}
}

func (s *Server) handleGetState(sess *session) {
	if sess.room == nil {
		sess.sendError(errs.ErrNotConnected)
		return
	}
	sess.conn.Send(TagState, sess.room.State())
}

func (s *Server) handleAdminCommand(sess *session, tag string) {
	if sess.room == nil {
		sess.sendError(errs.ErrNotConnected)
		return
	}
	actor, ok := sess.room.MemberByID(sess.memberID)
	if !ok {
		sess.sendError(errs.ErrNotConnected)
		return
	}

	var err error
	switch tag {
	case TagStartGame:
		err = sess.room.Start(actor)
	case TagNext:
		err = sess.room.Next(actor)
	case TagBackToLobby:
		err = sess.room.NextGame(actor)
	case TagEndGame:
		err = sess.room.End(actor)
	}
	if err != nil {
		sess.sendError(err)
		return
	}
	s.audit.Log(audit.Entry{Room: sess.room.Code, Actor: actor.ID.String(), Action: tag, Outcome: "ok"})
}

func (s *Server) handleKickMember(sess *session, args []any) {
	if sess.room == nil {
		sess.sendError(errs.ErrNotConnected)
		return
	}
	var req KickMemberRequest
	if err := decode(args, &req); err != nil {
		sess.sendError(err)
		return
	}
	targetID, err := uuid.Parse(req.MemberID)
	if err != nil {
		sess.sendError(errs.New(errs.RoomNotFound, "invalid member id"))
		return
	}
	actor, ok := sess.room.MemberByID(sess.memberID)
	if !ok {
		sess.sendError(errs.ErrNotConnected)
		return
	}
	if err := sess.room.Kick(actor, targetID); err != nil {
		sess.sendError(err)
		return
	}
	s.audit.Log(audit.Entry{Room: sess.room.Code, Actor: actor.ID.String(), Action: TagKickMember, Outcome: "ok"})
}

func (s *Server) handleDisconnecting(sess *session) {
	sess.hb.stop()
	sess.conn.Close()
	if sess.room != nil {
		sess.room.Disconnect(sess.memberID)
	}
}

func (s *Server) handleHeartbeatTimeout(sess *session) {
	s.log.Debugw("heartbeat timeout, disconnecting socket", "socket", sess.conn.ID())
	sess.sock.Disconnect(true)
}

// roomCodeFromHandshake extracts the optional room code carried in the
// connection URL's query string, the way the teacher's handlers pull
// the authenticated username out of the handshake auth map.
func roomCodeFromHandshake(sock *socket.Socket) string {
	hs := sock.Handshake()
	if hs == nil {
		return ""
	}
	if v, ok := hs.Query["room"]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}
