package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) getPolicy(c *gin.Context) {
	policy := s.policy.Current()
	c.JSON(http.StatusOK, gin.H{
		"legacy_cutoff":    policy.LegacyCutoff,
		"free_pipe_limit":  policy.FreePipeLimit,
		"free_blend_limit": policy.FreeBlendLimit,
		"fingerprint":      s.policy.Fingerprint(),
	})
}

// refreshPolicy re-reads the policy file on demand, for operators who do not
// want to wait for the file watcher.
func (s *Server) refreshPolicy(c *gin.Context) {
	previous := s.policy.Fingerprint()
	if err := s.policy.Refresh(); err != nil {
		AbortWithError(c, err)
		return
	}

	current := s.policy.Fingerprint()
	if current != previous {
		s.metrics.RecordPolicyRefresh()
	}
	c.JSON(http.StatusOK, gin.H{
		"fingerprint": current,
		"changed":     current != previous,
	})
}
