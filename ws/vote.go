package ws

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/quillhq/quill/middleware"
	"github.com/quillhq/quill/models"
	"github.com/quillhq/quill/utils"
)

// VoteHandler upgrades authenticated requests to websocket connections and
// processes vote events: it applies the like/unlike against the session user,
// recomputes the post's like count and broadcasts the tally to every
// connected client.
type VoteHandler struct {
	db       *gorm.DB
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewVoteHandler creates a VoteHandler bound to the hub.
func NewVoteHandler(db *gorm.DB, hub *Hub) *VoteHandler {
	return &VoteHandler{
		db:  db,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// cross-origin policy is enforced by the CORS layer
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws. AuthRequired runs before this handler, so the
// connection is already bound to a session identity.
func (v *VoteHandler) Serve(ctx *gin.Context) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	userID, ok := value.(uint)
	if !exists || !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	conn, err := v.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		utils.Sugar.Warnf("websocket upgrade failed: %v", err)
		return
	}

	newClient(v.hub, conn, userID, v.ApplyVote).start()
}

// ApplyVote applies a single vote event with the same semantics as the
// /like/:postID/:action endpoint, then broadcasts the updated tally.
func (v *VoteHandler) ApplyVote(userID uint, payload VotePayload) {
	var post models.Post
	if err := v.db.First(&post, payload.PostID).Error; err != nil {
		utils.Sugar.Debugf("vote for unknown post %d: %v", payload.PostID, err)
		return
	}

	var err error
	switch payload.Action {
	case "like":
		err = models.LikePost(v.db, userID, post.ID)
	case "unlike":
		err = models.UnlikePost(v.db, userID, post.ID)
	default:
		return
	}
	if err != nil {
		utils.Sugar.Warnf("failed to apply vote user=%d post=%d: %v", userID, post.ID, err)
		return
	}

	likes, err := models.CountLikes(v.db, post.ID)
	if err != nil {
		utils.Sugar.Warnf("failed to count likes for post %d: %v", post.ID, err)
		return
	}

	utils.InvalidateByPrefix("cache:post:detail:" + strconv.Itoa(int(post.ID)) + ":")
	v.hub.Broadcast(EventVoteResults, VoteResults{PostID: post.ID, Results: likes})
}
