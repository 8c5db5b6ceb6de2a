package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"backend/internal/middleware"
	"backend/internal/models"
	"backend/internal/session"
	"backend/internal/store"
)

type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

type VerifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type ResendRequest struct {
	Email string `json:"email" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Signup stages a pending registration and issues a 6-digit verification
// code. The code is logged for the operator to relay; there is no mail
// channel in this deployment.
func Signup(st *store.Store, codeTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		name := strings.TrimSpace(req.Name)
		password := strings.TrimSpace(req.Password)
		if email == "" || name == "" || password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email, password and name are required"})
			return
		}
		if len(password) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if existing, err := st.GetProfileByEmail(ctx, email); err != nil {
			log.Println("[AUTH] [ERROR] signup lookup failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		} else if existing != nil {
			log.Println("[AUTH] [ERROR] signup email exists:", email)
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] signup password hash failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
			return
		}

		code, err := generateVerificationCode()
		if err != nil {
			log.Println("[AUTH] [ERROR] signup code generation failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "code generation failed"})
			return
		}

		now := time.Now()
		pending := models.PendingSignup{
			Email:        email,
			Name:         name,
			Phone:        strings.TrimSpace(req.Phone),
			PasswordHash: string(hash),
			CodeHash:     hashToken(code),
			ExpiresAt:    now.Add(codeTTL),
			CreatedAt:    now,
		}
		if err := st.UpsertPendingSignup(ctx, pending); err != nil {
			log.Println("[AUTH] [ERROR] signup staging failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		log.Printf("[AUTH] [INFO] verification code for %s: %s", email, code)
		c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
	}
}

// VerifySignup redeems a verification code, creates the profile and signs
// the new user in.
func VerifySignup(st *store.Store, sessions *session.Manager, guard *session.Guard, jwtSecret string, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		code := strings.TrimSpace(req.Code)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		pending, err := st.GetPendingSignup(ctx, email)
		if err != nil {
			log.Println("[AUTH] [ERROR] verify lookup failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if pending == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
			return
		}
		if time.Now().After(pending.ExpiresAt) {
			_ = st.DeletePendingSignup(ctx, email)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
			return
		}
		if hashToken(code) != pending.CodeHash {
			log.Println("[AUTH] [ERROR] verify wrong code for:", email)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
			return
		}

		role := models.RoleUser
		if sessions.IsAdminEmail(email) {
			role = models.RoleAdmin
		}

		now := time.Now()
		profile := models.Profile{
			Email:        email,
			PasswordHash: pending.PasswordHash,
			Name:         pending.Name,
			Phone:        pending.Phone,
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		id, err := st.InsertProfile(ctx, profile)
		if err != nil {
			log.Println("[AUTH] [ERROR] verify profile insert failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		_ = st.DeletePendingSignup(ctx, email)

		profile.ID = id
		tokens, err := issueTokens(c, st, profile, jwtSecret, accessTTL, refreshTTL)
		if err != nil {
			return
		}
		guard.Activate(profile.ID.Hex())

		log.Println("[AUTH] [INFO] signup verified:", email)
		c.JSON(http.StatusCreated, gin.H{
			"accessToken":  tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
			"expiresIn":    tokens.ExpiresIn,
			"user":         authUser(profile),
		})
	}
}

// ResendCode reissues the verification code for a staged signup.
func ResendCode(st *store.Store, codeTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req ResendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		pending, err := st.GetPendingSignup(ctx, email)
		if err != nil {
			log.Println("[AUTH] [ERROR] resend lookup failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if pending == nil {
			// Do not reveal whether the email is staged.
			c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
			return
		}

		code, err := generateVerificationCode()
		if err != nil {
			log.Println("[AUTH] [ERROR] resend code generation failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "code generation failed"})
			return
		}

		now := time.Now()
		pending.CodeHash = hashToken(code)
		pending.ExpiresAt = now.Add(codeTTL)
		if err := st.UpsertPendingSignup(ctx, *pending); err != nil {
			log.Println("[AUTH] [ERROR] resend staging failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		log.Printf("[AUTH] [INFO] verification code for %s: %s", email, code)
		c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
	}
}

func Login(st *store.Store, sessions *session.Manager, guard *session.Guard, jwtSecret string, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || strings.TrimSpace(req.Password) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		profile, err := st.GetProfileByEmail(ctx, email)
		if err != nil {
			log.Println("[AUTH] [ERROR] login lookup failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if profile == nil {
			log.Println("[AUTH] [ERROR] login invalid credentials")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
			log.Println("[AUTH] [ERROR] login invalid credentials")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if sessions.IsAdminEmail(profile.Email) {
			profile.Role = models.RoleAdmin
		}

		tokens, err := issueTokens(c, st, *profile, jwtSecret, accessTTL, refreshTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] login token generation failed:", err)
			return
		}
		guard.Activate(profile.ID.Hex())

		log.Println("[AUTH] [INFO] login succeeded:", profile.Email)
		c.JSON(http.StatusOK, gin.H{
			"accessToken":  tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
			"expiresIn":    tokens.ExpiresIn,
			"user":         authUser(*profile),
		})
	}
}

func Refresh(st *store.Store, sessions *session.Manager, guard *session.Guard, jwtSecret string, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		plain := strings.TrimSpace(req.RefreshToken)
		if plain == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		token, err := st.FindActiveRefreshToken(ctx, hashToken(plain))
		if err != nil {
			log.Println("[AUTH] [ERROR] refresh lookup failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if token == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		if time.Now().After(token.ExpiresAt) {
			_ = st.RevokeRefreshToken(ctx, token.ID, nil)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token expired"})
			return
		}

		profile, err := st.GetProfile(ctx, token.UserID)
		if err != nil || profile == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if sessions.IsAdminEmail(profile.Email) {
			profile.Role = models.RoleAdmin
		}

		newTokens, err := issueTokens(c, st, *profile, jwtSecret, accessTTL, refreshTTL)
		if err != nil {
			return
		}
		_ = st.RevokeRefreshToken(ctx, token.ID, &newTokens.RefreshTokenID)
		guard.Activate(profile.ID.Hex())

		c.JSON(http.StatusOK, gin.H{
			"accessToken":  newTokens.AccessToken,
			"refreshToken": newTokens.RefreshToken,
			"expiresIn":    newTokens.ExpiresIn,
			"user":         authUser(*profile),
		})
	}
}

func Logout(st *store.Store, guard *session.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		plain := strings.TrimSpace(req.RefreshToken)
		if plain == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Resolve the session's owner first so the guard can drop any of
		// their still-running background work.
		token, err := st.FindActiveRefreshToken(ctx, hashToken(plain))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		if err := st.RevokeRefreshTokenByHash(ctx, hashToken(plain)); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		if token != nil {
			guard.Clear(token.UserID.Hex())
		}

		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

// GetMe resolves the caller's identity through the session manager, so a
// slow profile read degrades to the claims-derived identity instead of
// blocking the portal load.
func GetMe(sessions *session.Manager, guard *session.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "AUTH")

		claims, ok := middleware.SessionClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// A valid access token can outlive the guard entry (process restart);
		// re-activate so background work started now is not discarded.
		guard.Activate(claims.Sub)
		identity := sessions.Resolve(c.Request.Context(), claims, c.ClientIP(), guard)
		c.JSON(http.StatusOK, gin.H{"user": identity, "provisional": identity.Provisional})
	}
}

func authUser(p models.Profile) AuthUser {
	return AuthUser{
		ID:    p.ID.Hex(),
		Name:  p.Name,
		Email: p.Email,
		Role:  p.Role,
	}
}

type issuedTokens struct {
	AccessToken    string
	RefreshToken   string
	RefreshTokenID primitive.ObjectID
	ExpiresIn      int64
}

func issueTokens(c *gin.Context, st *store.Store, profile models.Profile, secret string, accessTTL, refreshTTL time.Duration) (*issuedTokens, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": profile.ID.Hex(),
		"email":  profile.Email,
		"name":   profile.Name,
		"phone":  profile.Phone,
		"role":   profile.Role,
		"exp":    now.Add(accessTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(secret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return nil, err
	}

	plainRefresh := generateRefreshString()
	if plainRefresh == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return nil, errors.New("could not generate refresh token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	refreshID, err := st.InsertRefreshToken(ctx, models.RefreshToken{
		UserID:    profile.ID,
		TokenHash: hashToken(plainRefresh),
		ExpiresAt: now.Add(refreshTTL),
		Revoked:   false,
		CreatedAt: now,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return nil, err
	}

	return &issuedTokens{
		AccessToken:    accessToken,
		RefreshToken:   plainRefresh,
		RefreshTokenID: refreshID,
		ExpiresIn:      int64(accessTTL.Seconds()),
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateRefreshString() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
