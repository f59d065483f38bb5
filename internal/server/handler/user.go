package handler

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gin-gonic/gin"

	"mast/internal/common"
	"mast/internal/server/dao"
	"mast/internal/server/middleware"
	"mast/pkg/api"
)

func UserLogin(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}

	user, err := dao.NewUserDao().GetByUsername(c, req.Username)
	if err != nil {
		common.Error(c, err)
		return
	}

	sum := sha256.Sum256([]byte(req.Password))
	if hex.EncodeToString(sum[:]) != user.PasswordHash {
		common.Error(c, common.NewErrNo(common.PasswordErr))
		return
	}

	token, err := middleware.GenerateJWT(user.Role)
	if err != nil {
		common.Error(c, err)
		return
	}
	c.Header("Authorization", "Bearer "+token)
	common.Success(c, api.LoginResponse{Token: token})
}
