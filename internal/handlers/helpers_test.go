package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"bankroll/internal/history"
	"bankroll/internal/logger"
	"bankroll/internal/middleware"
	"bankroll/internal/models"
	"bankroll/internal/pagination"
	"bankroll/internal/ranking"
	"bankroll/internal/services"
	"bankroll/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// --- mock services ---

type mockGroupService struct {
	createGroupFn    func(actor services.Actor, in services.CreateGroupInput) (*models.Group, *models.Player, error)
	joinGroupFn      func(actor services.Actor, groupID int64, password, displayName string) (*models.Player, error)
	getGroupFn       func(actor services.Actor, groupID int64) (*models.Group, error)
	getMemberFn      func(actor services.Actor, groupID int64) (*models.Player, error)
	listPlayersFn    func(actor services.Actor, groupID int64) ([]models.Player, error)
	resolveStakesFn  func(actor services.Actor, groupID int64) (*services.StakesView, error)
	updateSettingsFn func(actor services.Actor, groupID int64, adminPassword string, in services.SettingsInput) (*models.Group, error)
}

func (m *mockGroupService) CreateGroup(_ context.Context, actor services.Actor, in services.CreateGroupInput) (*models.Group, *models.Player, error) {
	if m.createGroupFn != nil {
		return m.createGroupFn(actor, in)
	}
	return &models.Group{}, &models.Player{}, nil
}

func (m *mockGroupService) JoinGroup(_ context.Context, actor services.Actor, groupID int64, password, displayName string) (*models.Player, error) {
	if m.joinGroupFn != nil {
		return m.joinGroupFn(actor, groupID, password, displayName)
	}
	return &models.Player{}, nil
}

func (m *mockGroupService) GetGroup(_ context.Context, actor services.Actor, groupID int64) (*models.Group, error) {
	if m.getGroupFn != nil {
		return m.getGroupFn(actor, groupID)
	}
	return &models.Group{GroupID: groupID}, nil
}

func (m *mockGroupService) GetMember(_ context.Context, actor services.Actor, groupID int64) (*models.Player, error) {
	if m.getMemberFn != nil {
		return m.getMemberFn(actor, groupID)
	}
	return &models.Player{}, nil
}

func (m *mockGroupService) ListPlayers(_ context.Context, actor services.Actor, groupID int64) ([]models.Player, error) {
	if m.listPlayersFn != nil {
		return m.listPlayersFn(actor, groupID)
	}
	return []models.Player{}, nil
}

func (m *mockGroupService) ResolveStakes(_ context.Context, actor services.Actor, groupID int64) (*services.StakesView, error) {
	if m.resolveStakesFn != nil {
		return m.resolveStakesFn(actor, groupID)
	}
	return &services.StakesView{}, nil
}

func (m *mockGroupService) UpdateSettings(_ context.Context, actor services.Actor, groupID int64, adminPassword string, in services.SettingsInput) (*models.Group, error) {
	if m.updateSettingsFn != nil {
		return m.updateSettingsFn(actor, groupID, adminPassword, in)
	}
	return &models.Group{GroupID: groupID}, nil
}

type mockBalanceService struct {
	createFn     func(actor services.Actor, groupID int64, in services.BalanceInput) (*models.Balance, error)
	updateFn     func(actor services.Actor, existing *models.Balance, in services.BalanceInput) (*models.Balance, error)
	softDeleteFn func(actor services.Actor, existing *models.Balance) error
	getFn        func(actor services.Actor, groupID int64, handle string) (*models.Balance, error)
	listFn       func(actor services.Actor, groupID int64, mine bool) ([]models.Balance, error)
}

func (m *mockBalanceService) Create(_ context.Context, actor services.Actor, groupID int64, in services.BalanceInput) (*models.Balance, error) {
	if m.createFn != nil {
		return m.createFn(actor, groupID, in)
	}
	return &models.Balance{}, nil
}

func (m *mockBalanceService) Update(_ context.Context, actor services.Actor, existing *models.Balance, in services.BalanceInput) (*models.Balance, error) {
	if m.updateFn != nil {
		return m.updateFn(actor, existing, in)
	}
	return existing, nil
}

func (m *mockBalanceService) SoftDelete(_ context.Context, actor services.Actor, existing *models.Balance) error {
	if m.softDeleteFn != nil {
		return m.softDeleteFn(actor, existing)
	}
	return nil
}

func (m *mockBalanceService) Get(_ context.Context, actor services.Actor, groupID int64, handle string) (*models.Balance, error) {
	if m.getFn != nil {
		return m.getFn(actor, groupID, handle)
	}
	return &models.Balance{Base: models.Base{ID: handle}, GroupID: groupID, PlayerUID: actor.UID}, nil
}

func (m *mockBalanceService) List(_ context.Context, actor services.Actor, groupID int64, mine bool) ([]models.Balance, error) {
	if m.listFn != nil {
		return m.listFn(actor, groupID, mine)
	}
	return []models.Balance{}, nil
}

type mockHistoryService struct {
	listFn func(actor services.Actor, groupID int64, adminPassword string, filter services.HistoryFilter, page pagination.PageRequest) (*pagination.PageResponse[history.Entry], error)
}

func (m *mockHistoryService) Record(context.Context, *models.HistoryRecord) error { return nil }

func (m *mockHistoryService) List(_ context.Context, actor services.Actor, groupID int64, adminPassword string, filter services.HistoryFilter, page pagination.PageRequest) (*pagination.PageResponse[history.Entry], error) {
	if m.listFn != nil {
		return m.listFn(actor, groupID, adminPassword, filter, page)
	}
	resp := pagination.NewPageResponse([]history.Entry{}, 1, 20, 0)
	return &resp, nil
}

type mockRankingService struct {
	publicFn func(actor services.Actor, groupID int64) ([]ranking.Row, error)
	fullFn   func(actor services.Actor, groupID int64, adminPassword string) ([]ranking.Row, error)
}

func (m *mockRankingService) Public(_ context.Context, actor services.Actor, groupID int64) ([]ranking.Row, error) {
	if m.publicFn != nil {
		return m.publicFn(actor, groupID)
	}
	return []ranking.Row{}, nil
}

func (m *mockRankingService) Full(_ context.Context, actor services.Actor, groupID int64, adminPassword string) ([]ranking.Row, error) {
	if m.fullFn != nil {
		return m.fullFn(actor, groupID, adminPassword)
	}
	return []ranking.Row{}, nil
}

// verify interface compliance
var (
	_ services.GroupServicer   = (*mockGroupService)(nil)
	_ services.BalanceServicer = (*mockBalanceService)(nil)
	_ services.HistoryServicer = (*mockHistoryService)(nil)
	_ services.RankingServicer = (*mockRankingService)(nil)
)

// --- helpers ---

const testUID = "uid-test"

func injectActor(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UIDKey, uid)
		c.Set(middleware.EmailKey, uid+"@example.com")
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
