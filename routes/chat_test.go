package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"homehive-server/models"
	"homehive-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// buildChatTestApp mounts the chat party's auth chain with a stub handler so
// the RBAC checks are exercised without a database.
func buildChatTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	app := iris.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	ok := func(ctx iris.Context) { ctx.JSON(iris.Map{"ok": true}) }

	chat := app.Party("/api/chat", accessTokenVerifierMiddleware)
	{
		chat.Get("/rooms", ok)
		chat.Post("/rooms", utils.TenantOnlyMiddleware, ok)
	}
	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

func signChatTestToken(id uint, role string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, _ := signer.Sign(utils.AccessToken{ID: id, Role: role})
	return string(token)
}

func TestChatRoutesRequireToken(t *testing.T) {
	app := buildChatTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/chat/rooms", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/chat/rooms", nil)
	req2.Header.Set("Authorization", "Bearer "+signChatTestToken(1, models.RoleTenant))
	resp2 := httptest.NewRecorder()
	app.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp2.Code)
	}
}

func TestCreateRoomIsTenantOnly(t *testing.T) {
	app := buildChatTestApp()

	req := httptest.NewRequest(http.MethodPost, "/api/chat/rooms", nil)
	req.Header.Set("Authorization", "Bearer "+signChatTestToken(1, models.RoleLandlord))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for landlord, got %d", resp.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/api/chat/rooms", nil)
	req2.Header.Set("Authorization", "Bearer "+signChatTestToken(2, models.RoleTenant))
	resp2 := httptest.NewRecorder()
	app.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusOK {
		t.Fatalf("expected 200 for tenant, got %d", resp2.Code)
	}
}
