package websocket

import (
	"errors"
	"net/http"

	"homehive-server/services"
	"homehive-server/utils"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeChat upgrades GET /ws/chat/{roomID} for room participants. A missing
// identity or a failed room check rejects the connection before the upgrade;
// no frames are exchanged with outsiders.
func ServeChat(hub *Hub, chat *services.ChatService) iris.Handler {
	return func(ctx iris.Context) {
		roomID, err := ctx.Params().GetUint("roomID")
		if err != nil {
			ctx.StopWithStatus(http.StatusBadRequest)
			return
		}

		tok := jwt.Get(ctx)
		if tok == nil {
			ctx.StopWithStatus(http.StatusUnauthorized)
			return
		}
		user := tok.(*utils.AccessToken)

		if _, err := chat.VerifyRoomAccess(roomID, user.ID); err != nil {
			if errors.Is(err, services.ErrRoomNotFound) || errors.Is(err, services.ErrAccessDenied) {
				ctx.StopWithStatus(http.StatusForbidden)
				return
			}
			ctx.StopWithStatus(http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(ctx.ResponseWriter(), ctx.Request(), nil)
		if err != nil {
			return
		}

		client := &Client{
			hub:    hub,
			chat:   chat,
			conn:   conn,
			send:   make(chan []byte, sendQueueSize),
			userID: user.ID,
			roomID: roomID,
		}
		hub.Join(roomID, client)

		go client.writePump()
		go client.readPump()
	}
}
