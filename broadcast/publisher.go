package broadcast

import "github.com/google/uuid"

// Publisher is the single-method capability the game coordinator is
// constructed with, per the "callback-style broadcast injection
// becomes a capability parameter" design note. It is bound to one
// room, so the coordinator never has to know a room code or reach for
// a global bus.
type Publisher interface {
	Publish(tag string, payload any)
}

// Emitter is satisfied by both Bus and RedisForwarder, letting the
// room wiring choose at startup whether emissions also go out over an
// external broker without the coordinator ever knowing the
// difference. RedisForwarder embeds *Bus and overrides only Emit, so
// Subscribe/Unsubscribe/EmitTo/CloseRoom are inherited unchanged.
type Emitter interface {
	Emit(roomCode string, tag string, payload any)
	EmitTo(roomCode string, memberID uuid.UUID, tag string, payload any)
	Subscribe(roomCode string, memberID uuid.UUID, sub Subscriber)
	Unsubscribe(roomCode string, memberID uuid.UUID)
	CloseRoom(roomCode string)
}

// RoomPublisher adapts an Emitter, bound to a fixed room code, into a
// Publisher.
type RoomPublisher struct {
	bus  Emitter
	room string
}

// NewRoomPublisher returns a Publisher scoped to roomCode.
func NewRoomPublisher(bus Emitter, roomCode string) *RoomPublisher {
	return &RoomPublisher{bus: bus, room: roomCode}
}

func (p *RoomPublisher) Publish(tag string, payload any) {
	p.bus.Emit(p.room, tag, payload)
}
