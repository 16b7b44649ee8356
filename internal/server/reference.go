package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	referencedomain "github.com/smallbiznis/timeoff/internal/reference/domain"
)

func (s *Server) ListCountries(c *gin.Context) {
	countries, err := s.refrepo.ListCountries(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": countries})
}

// ListTimezones lists every known zone, optionally narrowed to one region
// such as "Europe".
func (s *Server) ListTimezones(c *gin.Context) {
	timezones, err := s.refrepo.ListTimezones(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	region := strings.TrimSpace(c.Query("region"))
	if region != "" {
		filtered := make([]referencedomain.Timezone, 0, len(timezones))
		for _, tz := range timezones {
			if strings.EqualFold(tz.Region, region) {
				filtered = append(filtered, tz)
			}
		}
		timezones = filtered
	}

	c.JSON(http.StatusOK, gin.H{"data": timezones})
}
