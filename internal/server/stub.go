package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL = 30 * time.Minute
	defaultCategory = "Other"
)

type stubUser struct {
	id       int
	email    string
	username string
	password string
}

// StubBackend is an in-memory implementation of the video discussion REST API.
type StubBackend struct {
	mu       sync.Mutex
	users    map[string]*stubUser
	videos   []models.Video
	messages map[int][]models.Message

	nextUserID    int
	nextVideoID   int
	nextMessageID int

	secret   []byte
	tokenTTL time.Duration
	requests atomic.Int64

	// Reply produces the AI response for a posted message.
	Reply func(video models.Video, content string) string
	// Now is the clock used for timestamps and token expiry.
	Now func() time.Time

	router *BasicRouter
	logger *log.Logger
}

// NewStubBackend creates an empty backend. A nil logger discards request logs at the default level.
func NewStubBackend(logger *log.Logger) *StubBackend {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &StubBackend{
		users:    make(map[string]*stubUser),
		messages: make(map[int][]models.Message),
		secret:   []byte(shared.GenerateID()),
		tokenTTL: defaultTokenTTL,
		Reply:    cannedReply,
		Now:      time.Now,
		logger:   shared.WithLogger(logger, "component", "stub"),
	}
	s.router = s.routes()
	return s
}

func (s *StubBackend) routes() *BasicRouter {
	r := NewBasicRouter()
	r.Use(RequestLogger(s.logger))

	auth := RequireBearer(s.verify)

	r.Handle(http.MethodPost, "/token", http.HandlerFunc(s.handleToken))
	r.Handle(http.MethodPost, "/register", http.HandlerFunc(s.handleRegister))
	r.Handle(http.MethodGet, "/videos", http.HandlerFunc(s.handleListVideos), auth)
	r.Handle(http.MethodPost, "/videos", http.HandlerFunc(s.handleCreateVideo), auth)
	r.Handle(http.MethodGet, "/videos/{id}", http.HandlerFunc(s.handleGetVideo), auth)
	r.Handle(http.MethodGet, "/messages/{id}", http.HandlerFunc(s.handleListMessages), auth)
	r.Handle(http.MethodPost, "/messages", http.HandlerFunc(s.handleCreateMessage), auth)

	return r
}

// ServeHTTP implements [http.Handler].
func (s *StubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	s.router.ServeHTTP(w, r)
}

// Requests returns how many requests have been served.
func (s *StubBackend) Requests() int64 {
	return s.requests.Load()
}

// AddUser registers an account directly and returns its id.
func (s *StubBackend) AddUser(email, username, password string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, username, password).id
}

// AddVideo stores v with the next id and returns the stored copy.
func (s *StubBackend) AddVideo(v models.Video) models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextVideoID++
	v.ID = s.nextVideoID
	if v.CreatedAt.IsZero() {
		v.CreatedAt = models.Timestamp{Time: s.Now().UTC()}
	}
	s.videos = append(s.videos, v)
	return v
}

// IssueToken signs an access token for userID.
func (s *StubBackend) IssueToken(userID int) (string, error) {
	now := s.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *StubBackend) verify(token string) (int, bool) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return 0, false
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.id == userID {
			return userID, true
		}
	}
	return 0, false
}

func (s *StubBackend) addUserLocked(email, username, password string) *stubUser {
	s.nextUserID++
	u := &stubUser{id: s.nextUserID, email: email, username: username, password: password}
	s.users[email] = u
	return u
}

func (s *StubBackend) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form body")
		return
	}

	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if email == "" || password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	s.mu.Lock()
	u, ok := s.users[email]
	s.mu.Unlock()

	if !ok || u.password != password {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	s.writeToken(w, u.id)
}

func (s *StubBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	if reg.Email == "" || reg.Username == "" || reg.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "email, username and password are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.users[reg.Email]; exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	u := s.addUserLocked(reg.Email, reg.Username, reg.Password)
	s.mu.Unlock()

	s.writeToken(w, u.id)
}

func (s *StubBackend) writeToken(w http.ResponseWriter, userID int) {
	token, err := s.IssueToken(userID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *StubBackend) handleListVideos(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	s.mu.Lock()
	videos := make([]models.Video, 0, len(s.videos))
	for _, v := range s.videos {
		if category != "" && v.Category != category {
			continue
		}
		v.Transcription = nil
		videos = append(videos, v)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, videos)
}

func (s *StubBackend) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL      string  `json:"url"`
		Category *string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	youtubeID := shared.ExtractYouTubeID(body.URL)
	if youtubeID == "" {
		writeDetail(w, http.StatusBadRequest, "Invalid YouTube URL")
		return
	}

	category := defaultCategory
	if body.Category != nil && strings.TrimSpace(*body.Category) != "" {
		category = *body.Category
	}

	userID, _ := UserID(r.Context())
	video := s.AddVideo(models.Video{
		YouTubeID:     youtubeID,
		Title:         "Video " + youtubeID,
		Category:      category,
		UserID:        models.IntPtr(userID),
		Transcription: &models.Transcription{Content: "Transcript of " + youtubeID},
	})

	writeJSON(w, http.StatusOK, models.VideoSubmission{Message: "Video processed successfully", VideoID: video.ID})
}

func (s *StubBackend) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "video id must be an integer")
		return
	}

	video, ok := s.findVideo(id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Video not found")
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (s *StubBackend) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "video id must be an integer")
		return
	}

	s.mu.Lock()
	messages := append([]models.Message{}, s.messages[id]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, messages)
}

func (s *StubBackend) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content  string `json:"content"`
		VideoID  int    `json:"video_id"`
		ParentID *int   `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	video, ok := s.findVideo(body.VideoID)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Video not found")
		return
	}

	userID, _ := UserID(r.Context())
	reply := s.Reply(video, body.Content)

	s.mu.Lock()
	now := models.Timestamp{Time: s.Now().UTC()}

	s.nextMessageID++
	userMsg := models.Message{
		ID:        s.nextMessageID,
		Content:   body.Content,
		UserID:    models.IntPtr(userID),
		VideoID:   body.VideoID,
		ParentID:  body.ParentID,
		CreatedAt: now,
	}

	s.nextMessageID++
	aiMsg := models.Message{
		ID:        s.nextMessageID,
		Content:   reply,
		VideoID:   body.VideoID,
		ParentID:  models.IntPtr(userMsg.ID),
		CreatedAt: now,
	}

	s.messages[body.VideoID] = append(s.messages[body.VideoID], userMsg, aiMsg)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.MessageExchange{UserMessage: userMsg, AIResponse: aiMsg})
}

func (s *StubBackend) findVideo(id int) (models.Video, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.videos {
		if v.ID == id {
			return v, true
		}
	}
	return models.Video{}, false
}

func cannedReply(video models.Video, content string) string {
	return fmt.Sprintf("Based on the transcription of %q, here is a response to: %s", video.Title, content)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
