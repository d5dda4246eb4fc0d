package auth

import (
	"github.com/gin-gonic/gin"
)

type Role string

const (
	RoleStaff      Role = "staff"
	RoleQC         Role = "qc"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRank = map[Role]int{
	RoleStaff:      1,
	RoleQC:         2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r is ranked at or above min.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Actor is the caller identity supplied by the external auth collaborator.
// The engine trusts the boundary that populated it and only enforces role
// gates on top.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// System is the actor recorded for commits originating from event intake
// rather than an interactive session.
var System = Actor{ID: "system", Name: "system", Role: RoleStaff}

const actorKey = "auth.actor"

// Middleware extracts the caller identity from the headers set by the
// upstream auth layer and rejects requests without one.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor{
			ID:   c.GetHeader("X-Actor-Id"),
			Name: c.GetHeader("X-Actor-Name"),
			Role: Role(c.GetHeader("X-Actor-Role")),
		}
		if actor.ID == "" || !actor.Role.Valid() {
			c.AbortWithStatusJSON(401, gin.H{"message": "missing or invalid actor identity"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the actor placed by Middleware. The zero Actor is
// returned when the middleware did not run.
func ActorFromContext(c *gin.Context) Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(Actor); ok {
			return a
		}
	}
	return Actor{}
}
