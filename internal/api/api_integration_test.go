package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/grimoire/internal/config"
	"github.com/wfunc/grimoire/internal/game"
	"github.com/wfunc/grimoire/internal/game/role"
	"github.com/wfunc/grimoire/internal/repository"
	"github.com/wfunc/grimoire/internal/service"
	ws "github.com/wfunc/grimoire/internal/websocket"
)

// 标准七人局：恶魔、红唇女郎与五名善良玩家
var sevenPlayers = []string{
	role.Imp, role.ScarletWoman, role.Chef, role.Empath, role.Virgin, role.Soldier, role.Saint,
}

// envelope 通用响应
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APITestSuite API集成测试
type APITestSuite struct {
	suite.Suite
	router *Router
	games  *game.GameService
	hub    *ws.Hub
	cancel context.CancelFunc
	token  string
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load("")
	s.Require().NoError(err)

	db := repository.TestDB(s.T())
	catalog, err := role.Default()
	s.Require().NoError(err)

	s.games = game.NewGameService(&game.GameServiceConfig{
		DB:             db,
		Engine:         game.Options{Seed: 42, Catalog: catalog},
		SessionTimeout: time.Hour,
		MaxSessions:    10,
	})
	s.hub = ws.NewHub(nil, ws.OptionsFromConfig(&cfg.WebSocket))
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	go s.hub.Run(ctx)
	s.games.Sessions().Subscribe(func(sessionID string, view game.View) {
		s.hub.PushState(sessionID, view)
	})

	s.router = NewRouter(&RouterConfig{
		Config:   cfg,
		DB:       db,
		Services: service.NewServices(db, service.ConfigFromSecurity(&cfg.Security), nil),
		Games:    s.games,
		Hub:      s.hub,
		Catalog:  catalog,
	})
	s.token = s.register("alice")
}

func (s *APITestSuite) TearDownTest() {
	s.cancel()
}

func (s *APITestSuite) request(method, path, token string, body interface{}) (int, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.GetEngine().ServeHTTP(w, req)

	var resp envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

// do 执行请求并要求成功
func (s *APITestSuite) do(method, path string, body interface{}, out interface{}) {
	code, resp := s.request(method, path, s.token, body)
	s.Require().Equal(http.StatusOK, code, "%s %s: %+v", method, path, resp.Error)
	if out != nil {
		s.Require().NoError(json.Unmarshal(resp.Data, out))
	}
}

func (s *APITestSuite) register(name string) string {
	code, resp := s.request(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": name, "pin": "1234", "confirm_pin": "1234",
	})
	s.Require().Equal(http.StatusCreated, code)
	var auth service.AuthResponse
	s.Require().NoError(json.Unmarshal(resp.Data, &auth))
	return auth.AccessToken
}

func (s *APITestSuite) createSession() string {
	code, resp := s.request(http.MethodPost, "/api/v1/sessions", s.token, nil)
	s.Require().Equal(http.StatusCreated, code)
	var created struct {
		Session game.SessionInfo `json:"session"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &created))
	return created.Session.SessionID
}

// setupToDawn 选剧本、分配角色并完成首夜
func (s *APITestSuite) setupToDawn(id string) game.View {
	base := "/api/v1/sessions/" + id
	s.do(http.MethodPost, base+"/script", gin.H{"script_id": "tb"}, nil)
	for i, r := range sevenPlayers {
		s.do(http.MethodPost, fmt.Sprintf("%s/seats/%d/role", base, i), gin.H{"role_id": r}, nil)
	}
	s.do(http.MethodPost, base+"/check", nil, nil)

	var view game.View
	s.do(http.MethodPost, base+"/night", gin.H{"first": true}, &view)
	s.Require().Equal(game.PhaseFirstNight, view.Phase)
	for view.CurrentSeat != nil {
		s.do(http.MethodPost, base+"/confirm", nil, &view)
	}
	s.Require().Equal(game.PhaseDawnReport, view.Phase)
	return view
}

func (s *APITestSuite) TestHealthAndCatalog() {
	w := httptest.NewRecorder()
	s.router.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "healthy")

	var scripts []role.Script
	s.do(http.MethodGet, "/api/v1/scripts", nil, &scripts)
	s.NotEmpty(scripts)

	var roles []role.Role
	s.do(http.MethodGet, "/api/v1/roles?script=tb", nil, &roles)
	s.NotEmpty(roles)

	code, resp := s.request(http.MethodGet, "/api/v1/roles?script=missing", "", nil)
	s.Equal(http.StatusNotFound, code)
	s.False(resp.Success)

	code, _ = s.request(http.MethodGet, "/api/v1/nothing", "", nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *APITestSuite) TestAuthFlow() {
	code, resp := s.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{"name": "alice", "pin": "1234"})
	s.Require().Equal(http.StatusOK, code)
	var auth service.AuthResponse
	s.Require().NoError(json.Unmarshal(resp.Data, &auth))
	s.NotEmpty(auth.RefreshToken)

	code, _ = s.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{"name": "alice", "pin": "9999"})
	s.Equal(http.StatusUnauthorized, code)

	code, _ = s.request(http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": auth.RefreshToken})
	s.Equal(http.StatusOK, code)

	code, _ = s.request(http.MethodGet, "/api/v1/auth/profile", s.token, nil)
	s.Equal(http.StatusOK, code)

	code, _ = s.request(http.MethodGet, "/api/v1/sessions", "", nil)
	s.Equal(http.StatusUnauthorized, code)
}

func (s *APITestSuite) TestFullGame() {
	id := s.createSession()
	base := "/api/v1/sessions/" + id

	var list []game.SessionInfo
	s.do(http.MethodGet, "/api/v1/sessions", nil, &list)
	s.Len(list, 1)

	s.setupToDawn(id)

	var info game.SessionInfo
	s.do(http.MethodGet, base+"/stats", nil, &info)
	s.Equal("tb", info.Script)
	s.Equal(7, info.PlayerCount)

	var view game.View
	s.do(http.MethodPost, base+"/interaction", gin.H{"kind": "death_report", "payload": gin.H{}}, &view)
	s.do(http.MethodPost, base+"/day", nil, &view)
	s.Equal(game.PhaseDay, view.Phase)
	s.do(http.MethodPost, base+"/dusk", nil, &view)
	s.Equal(game.PhaseDusk, view.Phase)

	// 处决圣徒，邪恶获胜
	s.do(http.MethodPost, base+"/nominate", gin.H{"nominator_id": 2, "nominee_id": 6}, &view)
	s.Equal(map[int]int{6: 2}, view.Nominations)
	s.do(http.MethodPost, base+"/vote", gin.H{"nominee_id": 6, "count": 4}, nil)
	s.do(http.MethodPost, base+"/execute", nil, &view)
	s.Equal(game.PhaseGameOver, view.Phase)
	s.Require().NotNil(view.Verdict)
	s.Equal(role.Evil, view.Verdict.Winner)

	var page struct {
		Items []struct {
			RecordID  string `json:"record_id"`
			WinResult string `json:"win_result"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	s.do(http.MethodGet, "/api/v1/records", nil, &page)
	s.Require().EqualValues(1, page.Total)
	s.Equal("evil", page.Items[0].WinResult)

	s.do(http.MethodGet, "/api/v1/records/"+page.Items[0].RecordID, nil, nil)

	var stats repository.RecordStatistics
	s.do(http.MethodGet, "/api/v1/stats?days=7", nil, &stats)
	s.EqualValues(1, stats.EvilWins)

	s.do(http.MethodDelete, base, nil, nil)
	code, _ := s.request(http.MethodGet, base, s.token, nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *APITestSuite) TestSessionErrors() {
	id := s.createSession()
	base := "/api/v1/sessions/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"未知剧本", http.MethodPost, base + "/script", gin.H{"script_id": "missing"}, http.StatusNotFound},
		{"缺少参数", http.MethodPost, base + "/script", gin.H{}, http.StatusBadRequest},
		{"座位号非法", http.MethodPost, base + "/seats/x/role", gin.H{"role_id": "imp"}, http.StatusBadRequest},
		{"阶段不允许", http.MethodPost, base + "/dusk", nil, http.StatusConflict},
		{"会话不存在", http.MethodGet, "/api/v1/sessions/unknown", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			code, resp := s.request(tt.method, tt.path, s.token, tt.body)
			s.Equal(tt.status, code)
			s.False(resp.Success)
			s.NotNil(resp.Error)
		})
	}

	// 其他说书人无权操作
	other := s.register("bob")
	code, _ := s.request(http.MethodGet, base, other, nil)
	s.Equal(http.StatusForbidden, code)
	code, _ = s.request(http.MethodPost, base+"/reset", other, nil)
	s.Equal(http.StatusForbidden, code)
}

func (s *APITestSuite) TestStepBack() {
	id := s.createSession()
	base := "/api/v1/sessions/" + id

	s.do(http.MethodPost, base+"/script", gin.H{"script_id": "tb"}, nil)
	var view game.View
	s.do(http.MethodPost, base+"/seats/0/role", gin.H{"role_id": role.Imp}, &view)
	s.Require().NotNil(view.Seats[0].Role)
	s.Equal(role.Imp, view.Seats[0].Role.ID)
	s.True(view.CanStepBack)

	s.do(http.MethodPost, base+"/back", nil, &view)
	s.Nil(view.Seats[0].Role)

	s.do(http.MethodPut, base+"/seats/0/name", gin.H{"name": "Alice"}, &view)
	s.Equal("Alice", view.Seats[0].Name)
}

func (s *APITestSuite) TestWebSocketPush() {
	server := httptest.NewServer(s.router.Handler())
	defer server.Close()

	id := s.createSession()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?session=" + id + "&token=" + s.token
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()

	read := func() ws.Message {
		s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
		var msg ws.Message
		s.Require().NoError(conn.ReadJSON(&msg))
		return msg
	}

	s.Equal(ws.MessageTypeConnected, read().Type)
	s.Equal(ws.MessageTypeState, read().Type)

	// 操作后推送新状态
	s.do(http.MethodPost, "/api/v1/sessions/"+id+"/script", gin.H{"script_id": "tb"}, nil)
	msg := read()
	s.Equal(ws.MessageTypeState, msg.Type)
	s.Equal(id, msg.SessionID)

	// 未认证不能建立连接
	_, resp, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	s.Error(err)
	if resp != nil {
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/plain", func(c *gin.Context) {
		respondError(c, fmt.Errorf("boom"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, 1000, resp.Error.Code)
	assert.NotContains(t, w.Body.String(), "stack")
}
