package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/blues/fundcrm/internal/logic"
	"github.com/blues/fundcrm/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	HeaderUserID      = "X-User-Id"
	HeaderImpersonate = "X-Impersonate-Id"

	actingUserKey = "actingUser"
)

// ActingUserMiddleware 根据请求头解析当前操作者；只有合伙人可以模拟他人身份
func ActingUserMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		realID, err := uuid.Parse(c.GetHeader(HeaderUserID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + HeaderUserID})
			return
		}
		person, err := lookupPerson(c, db, realID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}

		actor := logic.ActingUser{RealID: person.ID, Role: person.Role}
		if raw := c.GetHeader(HeaderImpersonate); raw != "" {
			if person.Role != model.RolePartner {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "only partners can impersonate"})
				return
			}
			effectiveID, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + HeaderImpersonate})
				return
			}
			effective, err := lookupPerson(c, db, effectiveID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown impersonated user"})
				return
			}
			actor.EffectiveID = effective.ID
			actor.Role = effective.Role
		}

		c.Set(actingUserKey, actor)
		c.Next()
	}
}

func lookupPerson(c *gin.Context, db *gorm.DB, id uuid.UUID) (*model.Person, error) {
	var p model.Person
	err := db.WithContext(c.Request.Context()).Select("id", "role").First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, logic.ErrNotFound
	}
	return &p, err
}

// actingUser 中间件写入的操作者
func actingUser(c *gin.Context) logic.ActingUser {
	if v, ok := c.Get(actingUserKey); ok {
		return v.(logic.ActingUser)
	}
	return logic.ActingUser{}
}

// BearerAuth 校验 Authorization: Bearer <secret>，未配置密钥时一律拒绝
func BearerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
