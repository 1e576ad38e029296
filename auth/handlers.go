package auth

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pine/cache"
	"pine/common"
	"pine/store"
)

// OTPSender delivers activation codes.
type OTPSender interface {
	SendOTPEmail(to, otp string) error
}

type AuthModule struct {
	tokens  *TokenService
	store   *store.Store
	mailer  OTPSender
	cache   *cache.Store
	cookies cookieWriter
}

func NewAuthModule(tokens *TokenService, st *store.Store, mailer OTPSender, pageCache *cache.Store, cookies common.CookieConfig) *AuthModule {
	return &AuthModule{
		tokens:  tokens,
		store:   st,
		mailer:  mailer,
		cache:   pageCache,
		cookies: cookieWriter{cfg: cookies},
	}
}

func (a *AuthModule) RegisterRoutes(router gin.IRouter) {
	router.POST("/signup", a.signup)
	router.POST("/verify-otp", a.verifyOTP)
	router.POST("/login", a.createToken)
	router.POST("/auth/jwt/create", a.createToken)
	router.POST("/auth/jwt/refresh", a.refreshToken)

	authGroup := router.Group("/auth")
	authGroup.Use(a.tokens.RequireAuth(), a.cache.InvalidateOnWrite())
	{
		authGroup.POST("/logout", a.logout)
		authGroup.GET("/validate", a.cache.Middleware(), a.validate)
		authGroup.GET("/isActivated", a.cache.Middleware(), a.isActivated)
		authGroup.PATCH("/profile", a.updateProfile)
		authGroup.GET("/social-links", a.listSocialLinks)
		authGroup.POST("/social-links", a.saveSocialLink)
		authGroup.DELETE("/social-links/:id", a.deleteSocialLink)
		authGroup.DELETE("/account", a.deleteAccount)
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *AuthModule) createToken(c *gin.Context) {
	var input credentialsRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, common.NewInvalidCredentials())
		return
	}

	pair, _, err := a.tokens.Issue(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	if err := a.cookies.setTokenCookies(c, pair, a.tokens.AccessLifetime(), a.tokens.RefreshLifetime()); err != nil {
		common.RespondError(c, common.NewInternal(err))
		return
	}
	c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// refreshFromRequest reads the refresh token from the body, falling back to
// the header filled in by SessionBridge.
func refreshFromRequest(c *gin.Context) string {
	var body refreshRequest
	_ = c.ShouldBindJSON(&body)
	if body.Refresh != "" {
		return body.Refresh
	}
	return c.GetHeader(RefreshHeader)
}

func (a *AuthModule) refreshToken(c *gin.Context) {
	access, err := a.tokens.Refresh(c.Request.Context(), refreshFromRequest(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}

	a.cookies.setAccess(c, access, a.tokens.AccessLifetime())
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// logout always succeeds. A refresh token that is malformed, already revoked
// or issued to someone else is only logged.
func (a *AuthModule) logout(c *gin.Context) {
	if refresh := refreshFromRequest(c); refresh != "" {
		if err := a.tokens.RevokeOwned(c.Request.Context(), CurrentUserID(c), refresh); err != nil {
			log.Printf("logout: refresh token not revoked for user %d: %v", CurrentUserID(c), err)
		}
	}

	a.cookies.clearTokenCookies(c)
	common.RespondMessage(c, http.StatusOK, "Successfully logged out.")
}

func (a *AuthModule) validate(c *gin.Context) {
	user := CurrentPrincipal(c).User

	if !user.IsActive {
		a.sendActivationCode(c, user.ID, user.Email)
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":      user.ID,
		"email":       user.Email,
		"name":        user.Name,
		"isActivated": user.IsActive,
	})
}

func (a *AuthModule) isActivated(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isActivated": CurrentPrincipal(c).User.IsActive})
}

// sendActivationCode stores a fresh OTP and mails it in the background.
// Failures are logged; the caller's response does not depend on delivery.
func (a *AuthModule) sendActivationCode(c *gin.Context, userID uint, email string) {
	otp, err := a.store.IssueOTP(c.Request.Context(), userID)
	if err != nil {
		log.Printf("could not issue OTP for user %d: %v", userID, err)
		return
	}

	go func() {
		if err := a.mailer.SendOTPEmail(email, otp); err != nil {
			log.Printf("Error sending OTP email to %s: %v", email, err)
		}
	}()
}

type signupRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Phone          string `json:"phone" binding:"max=14"`
	ProfilePicture string `json:"profile_picture"`
}

func (a *AuthModule) signup(c *gin.Context) {
	var input signupRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, common.NewValidation(err.Error()))
		return
	}

	user, err := a.store.CreateUser(c.Request.Context(), store.NewUser{
		Email:          input.Email,
		Name:           input.Name,
		Password:       input.Password,
		Phone:          input.Phone,
		ProfilePicture: input.ProfilePicture,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	a.sendActivationCode(c, user.ID, user.Email)

	c.JSON(http.StatusOK, gin.H{
		"status":     true,
		"email":      user.Email,
		"name":       user.Name,
		"user_id":    user.ID,
		"isVerified": false,
	})
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

func (a *AuthModule) verifyOTP(c *gin.Context) {
	var input verifyOTPRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, common.NewValidation(err.Error()))
		return
	}

	user, err := a.store.VerifyOTP(c.Request.Context(), input.Email, input.OTP)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	// cached validate/isActivated responses still say "inactive"
	if err := a.cache.ClearUser(user.ID); err != nil {
		log.Printf("cache invalidation failed for user %d: %v", user.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{"isVerified": true})
}

type profileRequest struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone" binding:"omitempty,max=14"`
	ProfilePicture *string `json:"profile_picture"`
}

func (a *AuthModule) updateProfile(c *gin.Context) {
	var input profileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, common.NewValidation(err.Error()))
		return
	}

	user, err := a.store.UpdateProfile(c.Request.Context(), CurrentUserID(c), store.ProfilePatch{
		Name:           input.Name,
		Phone:          input.Phone,
		ProfilePicture: input.ProfilePicture,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondData(c, http.StatusOK, "Profile updated successfully", user)
}

func (a *AuthModule) listSocialLinks(c *gin.Context) {
	links, err := a.store.ListSocialLinks(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondList(c, http.StatusOK, "Social links fetched successfully", len(links), links)
}

type socialLinkRequest struct {
	Name string `json:"name" binding:"required,oneof=Instagram Twitter LinkedIn Facebook GitHub YouTube Personal Other"`
	Link string `json:"link" binding:"required,url,max=511"`
}

func (a *AuthModule) saveSocialLink(c *gin.Context) {
	var input socialLinkRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, common.NewValidation(err.Error()))
		return
	}

	link, err := a.store.UpsertSocialLink(c.Request.Context(), CurrentUserID(c), input.Name, input.Link)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondData(c, http.StatusOK, "Social link saved successfully", link)
}

func (a *AuthModule) deleteSocialLink(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, common.NewNotFound("Social link not found."))
		return
	}

	if err := a.store.DeleteSocialLink(c.Request.Context(), CurrentUserID(c), uint(id)); err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondMessage(c, http.StatusOK, "Social link deleted successfully.")
}

func (a *AuthModule) deleteAccount(c *gin.Context) {
	if err := a.store.DeleteUser(c.Request.Context(), CurrentUserID(c)); err != nil {
		common.RespondError(c, err)
		return
	}

	a.cookies.clearTokenCookies(c)
	common.RespondMessage(c, http.StatusOK, "Account deleted successfully.")
}
