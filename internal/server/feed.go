package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/timeoff/internal/feed"
	userdomain "github.com/smallbiznis/timeoff/internal/user/domain"
	"go.uber.org/zap"
)

// Feed serves the iCalendar feed behind a token. Calendar clients get a
// plain body even when the token is unknown.
func (s *Server) Feed(c *gin.Context) {
	body, err := s.feeds.Generate(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeFeedFailure(c, s.log, err)
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func writeFeedFailure(c *gin.Context, log *zap.Logger, err error) {
	if errors.Is(err, userdomain.ErrUnknownToken) {
		log.Debug("feed requested with unknown token")
	} else {
		log.Error("failed to generate feed", zap.Error(err))
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(feed.FailureBody()))
}
