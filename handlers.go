package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"time"

	"guildtrack/models"
	"guildtrack/pkg/capture"
	"guildtrack/pkg/stats"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func setupRoutes(r *gin.Engine, q *capture.Queue) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/captures", uploadCaptureHandler(q))
	authGroup.GET("/captures", listCapturesHandler)
	authGroup.GET("/captures/:id", getCaptureHandler)
	authGroup.GET("/queue", queueStatusHandler(q))
	authGroup.DELETE("/queue", clearQueueHandler(q))
	authGroup.GET("/queue/events", queueEventsHandler(q))
	authGroup.GET("/members", listMembersHandler)
	authGroup.GET("/members/summary", guildSummaryHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	username := usernameVal.(string)
	c.JSON(http.StatusOK, gin.H{"username": username})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	uname := unameVal.(string)
	var user models.User
	if err := db.Where("username = ?", uname).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	// Generate JWT token. Resolve role name from RoleID (we only store role_id).
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// helper to find refresh token record by raw token string
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

// uploadCaptureHandler accepts a multipart screenshot, stores it under the
// capture base and hands it to the processing queue. The producer gets the
// opaque queue id back immediately; it never blocks on recognition.
func uploadCaptureHandler(q *capture.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := getUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
			return
		}
		if file.Size > 10*1024*1024 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 10MB)"})
			return
		}
		source := c.PostForm("source")
		if source == "" {
			source = "upload"
		}
		region := c.PostForm("region")
		ct := file.Header.Get("Content-Type")
		baseDir := captureBaseDir()
		relPath := user.Username + "/" + file.Filename
		fullPath := baseDir + "/" + relPath
		if err := os.MkdirAll(baseDir+"/"+user.Username, 0755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
			return
		}
		if err := c.SaveUploadedFile(file, fullPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
			return
		}

		queueID := q.Enqueue(fullPath, capture.Meta{SourceLabel: source, Region: region})

		// If a capture record for this user+filename already exists, reuse it
		// so re-uploads stay idempotent at the storage level.
		var existing models.Capture
		if err := db.Where("user_id = ? AND file_name = ?", user.ID, file.Filename).First(&existing).Error; err == nil {
			existing.QueueID = queueID
			existing.Failed = false
			existing.FailedReason = ""
			db.Save(&existing)
			c.JSON(http.StatusOK, gin.H{"id": existing.ID, "queue_id": queueID, "path": relPath})
			return
		}

		row := models.Capture{
			UserID:      user.ID,
			FileName:    file.Filename,
			StorePath:   relPath,
			ContentType: ct,
			SourceLabel: source,
			Region:      region,
			QueueID:     queueID,
		}
		if err := db.Create(&row).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": row.ID, "queue_id": queueID, "path": relPath})
	}
}

// listCapturesHandler returns captures; admin sees all, user only their own.
func listCapturesHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var captures []models.Capture
	q := db.Model(&models.Capture{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(100).Find(&captures).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, captures)
}

// getCaptureHandler returns a single capture if admin or owner.
func getCaptureHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id := c.Param("id")
	var row models.Capture
	if err := db.First(&row, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if role != "administrator" && row.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, row)
}

func queueStatusHandler(q *capture.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, q.Snapshot())
	}
}

func clearQueueHandler(q *capture.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		dropped := q.Clear()
		c.JSON(http.StatusOK, gin.H{"dropped": dropped})
	}
}

// queueEventsHandler streams queue snapshots over SSE. The subscriber
// callback runs under the queue lock, so it only does a non-blocking hand-off
// to the stream channel; a slow client drops intermediate snapshots rather
// than stalling the queue.
func queueEventsHandler(q *capture.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch := make(chan capture.Snapshot, 8)
		cancel := q.Subscribe(func(s capture.Snapshot) {
			select {
			case ch <- s:
			default:
			}
		})
		defer cancel()
		c.Writer.Header().Set("Cache-Control", "no-cache")
		// initial snapshot so the client renders without waiting for a transition
		c.SSEvent("queue", q.Snapshot())
		c.Writer.Flush()
		c.Stream(func(w io.Writer) bool {
			select {
			case s := <-ch:
				c.SSEvent("queue", s)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}

// listMembersHandler returns the latest stats row per member, optionally
// filtered by guild.
func listMembersHandler(c *gin.Context) {
	guild := c.Query("guild")
	var rows []models.MemberStats
	q := db.Model(&models.MemberStats{})
	if guild != "" {
		q = q.Where("guild_name = ?", guild)
	}
	if err := q.Order("id desc").Limit(500).Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	// keep only the newest row per player identity
	seen := map[string]bool{}
	var latest []models.MemberStats
	for _, r := range rows {
		key := r.PlayerName + "#" + r.PlayerTag
		if seen[key] {
			continue
		}
		seen[key] = true
		latest = append(latest, r)
	}
	c.JSON(http.StatusOK, latest)
}

// guildSummaryHandler rolls up the latest records of one guild: member
// count plus summed net worth / prestige / investment. The monetary fields
// are stored as formatted strings, so the totals are computed here rather
// than in SQL.
func guildSummaryHandler(c *gin.Context) {
	guild := c.Query("guild")
	if guild == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guild query parameter required"})
		return
	}
	var rows []models.MemberStats
	if err := db.Where("guild_name = ?", guild).Order("id desc").Limit(500).Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	seen := map[string]bool{}
	var netWorth, prestige, invested int
	members := 0
	for _, r := range rows {
		key := r.PlayerName + "#" + r.PlayerTag
		if seen[key] {
			continue
		}
		seen[key] = true
		members++
		if v, ok := stats.ParseInt(r.NetWorth); ok {
			netWorth += v
		}
		if v, ok := stats.ParseInt(r.Prestige); ok {
			prestige += v
		}
		if v, ok := stats.ParseInt(r.Invested); ok {
			invested += v
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"guild":     guild,
		"members":   members,
		"net_worth": stats.FormatGrouping(netWorth),
		"prestige":  stats.FormatGrouping(prestige),
		"invested":  stats.FormatGrouping(invested),
	})
}
