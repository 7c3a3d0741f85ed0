package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/agency-crm/backend/internal/application/usecase/auth"
	"github.com/agency-crm/backend/internal/integration/adapters"
)

// eventualTimeout bounds the wait for background deliveries.
const eventualTimeout = 5 * time.Second

type testContext struct {
	headers      map[string]string
	client       *http.Client
	response     *response
	accessToken  string
	bigFishID    string
	lastTxID     string
	transactions map[string]string
}

type response struct {
	status int
	body   any
}

func registerSteps(ctx *godog.ScenarioContext, t *testContext) {
	// Background steps
	ctx.Given(`^the API server is running$`, t.theAPIServerIsRunning)
	ctx.Given(`^I am logged in as the agency admin$`, t.iAmLoggedInAsTheAgencyAdmin)
	ctx.Given(`^the remote store responds with status (\d+)$`, t.theRemoteStoreRespondsWithStatus)
	ctx.Given(`^the remote store responds to request (\d+) with status (\d+)$`, t.theRemoteStoreRespondsToRequestWithStatus)

	// Header steps
	ctx.Given(`^the header is empty$`, t.theHeaderIsEmpty)
	ctx.Given(`^the header contains the key "([^"]*)" with "([^"]*)"$`, t.theHeaderContainsTheKeyWith)

	// Request steps
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)"$`, t.iSendARequestTo)
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, t.iSendARequestToWithBody)
	ctx.When(`^I remember the transaction as "([^"]*)"$`, t.iRememberTheTransactionAs)

	// Response assertion steps
	ctx.Then(`^the response status should be (\d+)$`, t.theResponseStatusShouldBe)
	ctx.Then(`^the response should be JSON$`, t.theResponseShouldBeJSON)
	ctx.Then(`^the response should contain "([^"]*)"$`, t.theResponseShouldContain)
	ctx.Then(`^the response field "([^"]*)" should be "([^"]*)"$`, t.theResponseFieldShouldBe)
	ctx.Then(`^the response field "([^"]*)" should exist$`, t.theResponseFieldShouldExist)
	ctx.Then(`^the response field "([^"]*)" should not exist$`, t.theResponseFieldShouldNotExist)

	// Remote store assertion steps
	ctx.Then(`^the remote store should receive (\d+) "([^"]*)" requests?$`, t.theRemoteStoreShouldReceiveRequests)
	ctx.Then(`^the remote request (\d+) field "([^"]*)" should be "([^"]*)"$`, t.theRemoteRequestFieldShouldBe)
	ctx.Then(`^the remote requests (\d+) and (\d+) should share the "([^"]*)" header$`, t.theRemoteRequestsShouldShareTheHeader)

	// Store assertion steps
	ctx.Then(`^the local cache should hold (\d+) wallets?$`, t.theLocalCacheShouldHoldWallets)
	ctx.Then(`^the local cache wallet field "([^"]*)" should be "([^"]*)"$`, t.theLocalCacheWalletFieldShouldBe)
	ctx.Then(`^the db should contain (\d+) objects in the "([^"]*)" table$`, t.theDbShouldContainObjectsInTheTable)
	ctx.Then(`^the db should eventually contain (\d+) objects in "([^"]*)" with the values$`, t.theDbShouldEventuallyContainObjectsInWithTheValues)
}

func (t *testContext) before() error {
	t.headers = make(map[string]string)
	t.response = nil
	t.accessToken = ""
	t.bigFishID = ""
	t.lastTxID = ""
	t.transactions = make(map[string]string)

	if shared == nil {
		return errors.New("test suite was not initialised")
	}
	return shared.reset()
}

func (t *testContext) theAPIServerIsRunning() error {
	resp, err := t.client.Get(shared.uri() + "/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func (t *testContext) iAmLoggedInAsTheAgencyAdmin() error {
	tokenService := adapters.NewTokenService(testJWTSecret, time.Hour)
	token, err := tokenService.GenerateAccessToken(context.Background(), auth.AdminSubject, testAdminEmail)
	if err != nil {
		return fmt.Errorf("failed to generate access token: %w", err)
	}
	t.accessToken = token.Token
	return nil
}

func (t *testContext) theRemoteStoreRespondsWithStatus(status int) error {
	shared.remote.SetResponse(-1, http.MethodPost, remoteSyncPath, status, map[string]any{"ok": status < 300})
	return nil
}

func (t *testContext) theRemoteStoreRespondsToRequestWithStatus(index, status int) error {
	shared.remote.SetResponse(index, http.MethodPost, remoteSyncPath, status, map[string]any{"ok": status < 300})
	return nil
}

func (t *testContext) theHeaderIsEmpty() error {
	t.headers = make(map[string]string)
	t.accessToken = "" // Clear access token to simulate unauthenticated request
	return nil
}

func (t *testContext) theHeaderContainsTheKeyWith(key, value string) error {
	t.headers[key] = value
	return nil
}

func (t *testContext) iSendARequestTo(method, path string) error {
	return t.executeRequest(method, t.replacePlaceholders(path), nil)
}

func (t *testContext) iSendARequestToWithBody(method, path string, body *godog.DocString) error {
	var payload []byte
	if body != nil && body.Content != "" {
		payload = []byte(t.replacePlaceholders(body.Content))
	}
	return t.executeRequest(method, t.replacePlaceholders(path), payload)
}

func (t *testContext) iRememberTheTransactionAs(name string) error {
	if t.lastTxID == "" {
		return errors.New("no transaction id captured from the last response")
	}
	t.transactions[name] = t.lastTxID
	return nil
}

func (t *testContext) replacePlaceholders(content string) string {
	content = strings.ReplaceAll(content, "{{big_fish_id}}", t.bigFishID)
	content = strings.ReplaceAll(content, "{{transaction_id}}", t.lastTxID)
	content = strings.ReplaceAll(content, "{{admin_email}}", testAdminEmail)
	content = strings.ReplaceAll(content, "{{admin_password}}", testAdminPassword)
	for name, id := range t.transactions {
		content = strings.ReplaceAll(content, "{{tx."+name+"}}", id)
	}
	return content
}

func (t *testContext) executeRequest(method, path string, payload []byte) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, shared.uri()+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if t.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.accessToken)
	}

	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	t.response = &response{
		status: resp.StatusCode,
	}

	var responseBody map[string]any
	if err := json.Unmarshal(bodyBytes, &responseBody); err != nil {
		t.response.body = string(bodyBytes)
		return nil
	}
	t.response.body = responseBody
	t.captureIDs(responseBody)

	return nil
}

// captureIDs remembers the wallet and transaction ids returned by the API.
func (t *testContext) captureIDs(body map[string]any) {
	// Wallet responses carry the aggregates at the top level
	if id, ok := body["id"].(string); ok {
		if _, isWallet := body["portal_config"]; isWallet {
			t.bigFishID = id
		}
	}

	if wallet, ok := body["big_fish"].(map[string]any); ok {
		if id, ok := wallet["id"].(string); ok {
			t.bigFishID = id
		}
	}

	if tx, ok := body["transaction"].(map[string]any); ok {
		if id, ok := tx["id"].(string); ok {
			t.lastTxID = id
		}
	}
}

func (t *testContext) theResponseStatusShouldBe(expectedStatus int) error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if t.response.status != expectedStatus {
		return fmt.Errorf("expected status %d, got %d (body: %v)", expectedStatus, t.response.status, t.response.body)
	}
	return nil
}

func (t *testContext) theResponseShouldBeJSON() error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if _, ok := t.response.body.(map[string]any); !ok {
		return fmt.Errorf("response is not JSON: %v", t.response.body)
	}
	return nil
}

func (t *testContext) theResponseShouldContain(field string) error {
	body, err := t.jsonBody()
	if err != nil {
		return err
	}
	if _, exists := body[field]; !exists {
		return fmt.Errorf("response does not contain field '%s': %v", field, body)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldBe(field, expectedValue string) error {
	body, err := t.jsonBody()
	if err != nil {
		return err
	}

	value := getFieldValue(body, field)
	if value == nil {
		return fmt.Errorf("field '%s' not found in response: %v", field, body)
	}

	actualValue := fmt.Sprintf("%v", value)
	if actualValue != expectedValue {
		return fmt.Errorf("field '%s' expected '%s', got '%s'", field, expectedValue, actualValue)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldExist(field string) error {
	body, err := t.jsonBody()
	if err != nil {
		return err
	}
	if getFieldValue(body, field) == nil {
		return fmt.Errorf("field '%s' not found in response: %v", field, body)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldNotExist(field string) error {
	body, err := t.jsonBody()
	if err != nil {
		return err
	}
	if value := getFieldValue(body, field); value != nil {
		return fmt.Errorf("field '%s' expected to be absent, got %v", field, value)
	}
	return nil
}

func (t *testContext) jsonBody() (map[string]any, error) {
	if t.response == nil {
		return nil, errors.New("no response received")
	}
	body, ok := t.response.body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response is not a JSON object: %v", t.response.body)
	}
	return body, nil
}

// remoteRequests returns the bodies received by the remote store, in arrival order.
func remoteRequests() []map[string]any {
	count := shared.remote.RequestCount(http.MethodPost, remoteSyncPath)
	out := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, shared.remote.GetRequestBody(http.MethodPost, remoteSyncPath, i))
	}
	return out
}

func countActions(requests []map[string]any, action string) int {
	n := 0
	for _, body := range requests {
		if body["action"] == action {
			n++
		}
	}
	return n
}

func (t *testContext) theRemoteStoreShouldReceiveRequests(expected int, action string) error {
	deadline := time.Now().Add(eventualTimeout)
	for {
		got := countActions(remoteRequests(), action)
		if got == expected {
			// Give stragglers a moment to prove the count is final
			time.Sleep(200 * time.Millisecond)
			if got = countActions(remoteRequests(), action); got == expected {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("expected %d %q requests, got %d: %v", expected, action, got, remoteRequests())
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (t *testContext) theRemoteRequestFieldShouldBe(index int, field, expected string) error {
	body := shared.remote.GetRequestBody(http.MethodPost, remoteSyncPath, index)
	if body == nil {
		return fmt.Errorf("remote request %d not received", index)
	}
	value := getFieldValue(body, t.replacePlaceholders(field))
	if value == nil {
		return fmt.Errorf("field '%s' not found in remote request %d: %v", field, index, body)
	}
	if actual := fmt.Sprintf("%v", value); actual != t.replacePlaceholders(expected) {
		return fmt.Errorf("remote request %d field '%s' expected '%s', got '%s'", index, field, expected, actual)
	}
	return nil
}

func (t *testContext) theRemoteRequestsShouldShareTheHeader(first, second int, header string) error {
	a := shared.remote.GetRequestHeaders(http.MethodPost, remoteSyncPath, first)
	b := shared.remote.GetRequestHeaders(http.MethodPost, remoteSyncPath, second)
	if a == nil || b == nil {
		return fmt.Errorf("remote requests %d and %d were not both received", first, second)
	}
	key := http.CanonicalHeaderKey(header)
	if a[key] == "" || a[key] != b[key] {
		return fmt.Errorf("header %s differs: %q vs %q", key, a[key], b[key])
	}
	return nil
}

func cachedWallets() ([]map[string]any, error) {
	var wallets []map[string]any
	if err := shared.redis.GetJSON(walletCacheKey, &wallets); err != nil {
		return nil, fmt.Errorf("cached wallets unavailable: %w", err)
	}
	return wallets, nil
}

func (t *testContext) theLocalCacheShouldHoldWallets(expected int) error {
	wallets, err := cachedWallets()
	if err != nil {
		return err
	}
	if len(wallets) != expected {
		return fmt.Errorf("expected %d cached wallets, got %d", expected, len(wallets))
	}
	return nil
}

func (t *testContext) theLocalCacheWalletFieldShouldBe(field, expected string) error {
	wallets, err := cachedWallets()
	if err != nil {
		return err
	}
	for _, wallet := range wallets {
		if wallet["id"] != t.bigFishID {
			continue
		}
		value := getFieldValue(wallet, field)
		if value == nil {
			return fmt.Errorf("field '%s' not found in cached wallet: %v", field, wallet)
		}
		if actual := fmt.Sprintf("%v", value); actual != expected {
			return fmt.Errorf("cached field '%s' expected '%s', got '%s' (%T)", field, expected, actual, value)
		}
		return nil
	}
	return fmt.Errorf("wallet %s not found in the cache", t.bigFishID)
}

func (t *testContext) theDbShouldContainObjectsInTheTable(quantity int, table string) error {
	count, err := countRows(table, nil)
	if err != nil {
		return err
	}
	if count != quantity {
		return fmt.Errorf("expected %d objects in '%s', got %d", quantity, table, count)
	}
	return nil
}

func (t *testContext) theDbShouldEventuallyContainObjectsInWithTheValues(quantity int, table string, content *godog.DocString) error {
	var criteria map[string]any
	if err := json.Unmarshal([]byte(content.Content), &criteria); err != nil {
		return err
	}

	deadline := time.Now().Add(eventualTimeout)
	for {
		count, err := countRows(table, criteria)
		if err != nil {
			return err
		}
		if count == quantity {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("expected %d objects in '%s' with criteria %v, got %d", quantity, table, criteria, count)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func countRows(table string, criteria map[string]any) (int, error) {
	entity, ok := shared.db.GetModel(table)
	if !ok {
		return 0, fmt.Errorf("table '%s' not found in models", table)
	}

	entityType := reflect.TypeOf(entity).Elem()
	entitySlicePtr := reflect.New(reflect.SliceOf(entityType))

	query := shared.db.DbConn.Unscoped()
	for key, value := range criteria {
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	if err := query.Find(entitySlicePtr.Interface()).Error; err != nil {
		return 0, err
	}
	return entitySlicePtr.Elem().Len(), nil
}

func getFieldValue(object any, dotSeparatedField string) any {
	if object == nil {
		return nil
	}

	var objectMap map[string]any
	switch v := object.(type) {
	case map[string]any:
		objectMap = v
	default:
		objectJSON, _ := json.Marshal(object)
		if err := json.Unmarshal(objectJSON, &objectMap); err != nil {
			return nil
		}
	}

	fields := strings.Split(dotSeparatedField, ".")
	var field any = objectMap

	for _, currentField := range fields {
		if field == nil {
			return nil
		}

		if i, err := strconv.Atoi(currentField); err == nil {
			if arr, ok := field.([]any); ok && i < len(arr) {
				field = arr[i]
			} else {
				return nil
			}
		} else {
			if m, ok := field.(map[string]any); ok {
				field = m[currentField]
			} else {
				return nil
			}
		}
	}

	return field
}
