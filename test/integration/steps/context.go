// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/agency-crm/backend/config"
	"github.com/agency-crm/backend/internal/infra/dependency"
	"github.com/agency-crm/backend/internal/integration/persistence/model"
	"github.com/agency-crm/backend/test/integration/mock"
)

const (
	testJWTSecret     = "test-jwt-secret-key-for-testing-purposes"
	testAdminEmail    = "owner@agency.test"
	testAdminPassword = "AgencyPass123!"
	remoteSyncPath    = "/sync"
	walletCacheKey    = "big_fish"
)

// suite holds the resources shared by every scenario.
type suite struct {
	db         *mock.Db
	redis      *mock.Redis
	remote     *mock.ApiMock
	injector   *dependency.Injector
	serverPort int
	stopWorker context.CancelFunc
}

var (
	shared    *suite
	suiteInit sync.Once
)

// InitializeTestSuite starts the API once for the whole run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		suiteInit.Do(func() {
			shared = startSuite()
		})
	})

	ctx.AfterSuite(func() {
		if shared == nil {
			return
		}
		shared.stopWorker()
		shared.injector.Dispatcher.Wait()
		shared.remote.Close()
	})
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	test := &testContext{
		client: &http.Client{Timeout: 10 * time.Second},
	}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, test.before()
	})

	registerSteps(ctx, test)
}

func startSuite() *suite {
	gin.SetMode(gin.TestMode)
	_ = os.Setenv("ENV", "test")

	port := findAvailablePort()

	remote := mock.NewApiServer()
	remote.Start()

	database := mock.NewDb("agency_crm", map[string]any{
		"kv_entries": &model.KVEntryModel{},
		"sync_jobs":  &model.SyncJobModel{},
	})

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("failed to hash password: %v", err))
	}

	cfg := config.Load()
	cfg.Server.Environment = "test"
	cfg.Server.Port = port
	cfg.LocalStore.Backend = dependency.StoreBackendRedis
	cfg.LocalStore.Key = walletCacheKey
	cfg.JWT.Secret = testJWTSecret
	cfg.Admin.Email = testAdminEmail
	cfg.Admin.PasswordHash = string(passwordHash)
	cfg.Sync.Transport = dependency.TransportHTTP
	cfg.Sync.URL = remote.GetUrl() + remoteSyncPath
	cfg.Sync.Timeout = 2 * time.Second
	cfg.Sync.WorkerEnabled = true
	cfg.Sync.PollInterval = 100 * time.Millisecond
	cfg.AI.GeminiAPIKey = ""

	sender, _, err := dependency.NewSyncSender(&cfg.Sync)
	if err != nil {
		panic(err)
	}

	cache := mock.NewRedis()

	injector, err := dependency.NewInjector(cfg, database.DbConn, cache.Client, sender)
	if err != nil {
		panic(err)
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	go injector.Worker.Start(workerCtx)

	engine := injector.Router.Setup(cfg.Server.Environment)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
	go func() {
		_ = server.ListenAndServe()
	}()

	s := &suite{
		db:         database,
		redis:      cache,
		remote:     remote,
		injector:   injector,
		serverPort: port,
		stopWorker: stopWorker,
	}
	s.waitUntilReady()
	return s
}

func (s *suite) waitUntilReady() {
	uri := fmt.Sprintf("http://localhost:%d/health", s.serverPort)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(uri)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	panic("api server did not become ready")
}

func findAvailablePort() int {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		panic(err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

// reset clears every store between scenarios.
// In-flight deliveries finish first so they cannot leak into the next scenario.
func (s *suite) reset() error {
	s.injector.Dispatcher.Wait()
	s.remote.ClearResponses(http.MethodPost, remoteSyncPath)
	s.redis.Clear()
	return s.db.ClearDB()
}

func (s *suite) uri() string {
	return "http://localhost:" + strconv.Itoa(s.serverPort)
}
