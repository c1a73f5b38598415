package transport

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"

	"trivion/audit"
	"trivion/auth"
	"trivion/logging"
	"trivion/room"
)

// Server wires the socket.io transport to the room registry: every
// inbound tag dispatches to exactly one room command, executed under
// that room's lock.
type Server struct {
	sio    *socket.Server
	opts   *socket.ServerOptions
	rooms  *room.Registry
	issuer *auth.Issuer
	audit  *audit.Writer
	log    *logging.Logger
}

// New builds a Server. corsOrigins is passed straight through to the
// socket.io CORS configuration, mirroring the teacher's
// c.SetCors(&types.Cors{...}) call.
func New(rooms *room.Registry, issuer *auth.Issuer, auditWriter *audit.Writer, log *logging.Logger, corsOrigins string) *Server {
	opts := socket.DefaultServerOptions()
	opts.SetServeClient(true)
	// §4.5 fixes the heartbeat cadence at 15s ping / 30s timeout,
	// distinct from the teacher's 5s/3s transport-level keepalive.
	opts.SetPingInterval(HeartbeatInterval)
	opts.SetPingTimeout(HeartbeatTimeout)
	opts.SetMaxHttpBufferSize(1_000_000)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetTransports(types.NewSet("polling", "websocket"))
	opts.SetCors(&types.Cors{Origin: corsOrigins, Credentials: true})

	s := &Server{
		sio:    socket.NewServer(nil, nil),
		rooms:  rooms,
		issuer: issuer,
		audit:  auditWriter,
		log:    log,
	}
	s.sio.On("connection", func(clients ...any) {
		sock := clients[0].(*socket.Socket)
		s.registerHandlers(sock)
	})
	s.opts = opts
	return s
}

// Mount attaches the socket.io HTTP upgrade handler to router at /ws,
// the path §6.1 names for the persistent message channel.
func (s *Server) Mount(router *gin.Engine) {
	handler := s.sio.ServeHandler(s.opts)
	router.GET("/ws/*any", gin.WrapH(handler))
	router.POST("/ws/*any", gin.WrapH(handler))
}

// Close shuts the socket.io server down, closing every connection.
func (s *Server) Close() {
	s.sio.Close(nil)
}
