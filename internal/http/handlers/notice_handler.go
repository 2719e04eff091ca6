package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"quickthrift/internal/notify"
)

type NoticeHandler struct {
	Hub *notify.Hub
}

// GET /api/notices?since=N returns notices newer than N and the cursor to
// poll with next.
func (h *NoticeHandler) List(c *fiber.Ctx) error {
	var since uint64
	if s := c.Query("since"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return badRequest(c, "since must be a sequence number")
		}
		since = n
	}
	ns := h.Hub.Since(since)
	last := since
	if len(ns) > 0 {
		last = ns[len(ns)-1].Seq
	} else if l := h.Hub.Last(); l < since {
		last = l // the hub restarted
	}
	return c.JSON(fiber.Map{"notices": ns, "last": last})
}
