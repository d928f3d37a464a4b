package shop_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopfront/pkg/shopsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Container setup and helpers for the shopfront end-to-end tests. No SMTP
 * relay is configured, so emailed links are read back from the service log.
 */

const (
	testImageName = "shopfront-test:latest"

	tokenSecret  = "e2e-secret-0123456789abcdef012345"
	frontendURL  = "http://frontend.test"
	testPassword = "Passw0rd!"
)

// TestMain builds the Docker image once before all tests and removes it after.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building shopfront Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up shopfront Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/shopfront/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

// shopContainer is a running shopfront instance.
type shopContainer struct {
	testcontainers.Container
	BaseURL string
	Client  *shopsdk.Client
}

// relaxedRateLimits lifts the strict limits; flows make many rapid requests
// that would otherwise be throttled.
var relaxedRateLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "1000",
	"RATELIMIT_STRICT_WINDOW_SEC": "60",
	"RATELIMIT_STRICT_BURST":      "1000",
	"RATELIMIT_MODERATE_REQUESTS": "1000",
	"RATELIMIT_MODERATE_BURST":    "1000",
}

// setupShopContainer starts shopfront with relaxed rate limits.
func setupShopContainer(t *testing.T) *shopContainer {
	t.Helper()
	return startShopContainer(t, relaxedRateLimits)
}

// setupShopContainerWithDefaultRateLimits starts shopfront with production
// rate limits, for tests of the limiter itself.
func setupShopContainerWithDefaultRateLimits(t *testing.T) *shopContainer {
	t.Helper()
	return startShopContainer(t, nil)
}

func startShopContainer(t *testing.T, extraEnv map[string]string) *shopContainer {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"TOKEN_SECRET":       tokenSecret,
		"PUBLIC_BASE_URL":    frontendURL,
		"FILESTORE_DRIVER":   "local",
		"FILESTORE_BASE_URL": "http://localhost:3000",
		"ENV":                "test",
		"LOG_LEVEL":          "info",
		"LOG_FORMAT":         "json",
	}
	maps.Copy(env, extraEnv)

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"3000/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("3000/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "3000")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
	return &shopContainer{
		Container: container,
		BaseURL:   baseURL,
		Client:    shopsdk.NewClient(baseURL),
	}
}

// mailedToken waits for the newest logged email to addr whose link path is
// path and returns its token.
func (c *shopContainer) mailedToken(t *testing.T, addr, path string) string {
	t.Helper()

	var token string
	require.Eventually(t, func() bool {
		token = c.scanMailLog(t, addr, path)
		return token != ""
	}, 10*time.Second, 200*time.Millisecond, "no %s email logged for %s", path, addr)
	return token
}

func (c *shopContainer) scanMailLog(t *testing.T, addr, path string) string {
	t.Helper()

	logs, err := c.Logs(t.Context())
	require.NoError(t, err)
	defer logs.Close()

	var token string
	sc := bufio.NewScanner(logs)
	for sc.Scan() {
		line := sc.Bytes()
		start := strings.IndexByte(string(line), '{')
		if start < 0 {
			continue
		}
		var entry struct {
			To   string `json:"to"`
			Link string `json:"link"`
		}
		if json.Unmarshal(line[start:], &entry) != nil || entry.Link == "" {
			continue
		}
		if !strings.Contains(entry.To, addr) {
			continue
		}
		u, err := url.Parse(entry.Link)
		if err != nil || u.Path != path {
			continue
		}
		token = u.Query().Get("token")
	}
	return token
}

// registerVerified registers addr, completes email verification and logs in.
func (c *shopContainer) registerVerified(t *testing.T, first, last, addr string) *shopsdk.Session {
	t.Helper()
	ctx := t.Context()

	_, err := c.Client.Register(ctx, shopsdk.RegisterRequest{
		FirstName: first, LastName: last, Email: addr, Password: testPassword,
	})
	require.NoError(t, err)

	token := c.mailedToken(t, addr, "/verify-email")
	_, err = c.Client.VerifyEmail(ctx, shopsdk.VerifyEmailRequest{
		Token: token, Password: testPassword, ConfirmPassword: testPassword,
	})
	require.NoError(t, err)

	session, err := c.Client.Login(ctx, addr, testPassword)
	require.NoError(t, err)
	return session
}

// requireAPIError checks err is an API error with the given status and code.
func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	var apiErr *shopsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, apiErr.Error())
	require.Equal(t, code, apiErr.Code)
}
