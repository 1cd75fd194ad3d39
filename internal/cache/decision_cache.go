package cache

import (
	"strings"
	"time"

	subscriptiondomain "github.com/briarworks/briarkeep/internal/subscription/domain"
)

// Decisions stay cached briefly so repeated feature checks within a request
// burst do not hit the record store. Upserts for the same identity invalidate.
const defaultDecisionTTL = 45 * time.Second

// DecisionCache stores resolved subscription decisions per identity.
type DecisionCache interface {
	Get(userID, email string) (subscriptiondomain.Decision, bool)
	Set(userID, email string, decision subscriptiondomain.Decision)
	Invalidate(userID, email string)
}

type decisionCache struct {
	decisions Cache[string, subscriptiondomain.Decision]
	ttl       time.Duration
}

func NewDecisionCache() DecisionCache {
	return &decisionCache{
		decisions: NewTTLCache[string, subscriptiondomain.Decision](),
		ttl:       defaultDecisionTTL,
	}
}

func (c *decisionCache) Get(userID, email string) (subscriptiondomain.Decision, bool) {
	return c.decisions.Get(cacheKey(userID, email))
}

func (c *decisionCache) Set(userID, email string, decision subscriptiondomain.Decision) {
	c.decisions.Set(cacheKey(userID, email), decision, c.ttl)
}

func (c *decisionCache) Invalidate(userID, email string) {
	c.decisions.Delete(cacheKey(userID, email))
}

func cacheKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		values = append(values, trimmed)
	}
	return strings.Join(values, "|")
}
