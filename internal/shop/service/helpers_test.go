package service_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopfront/internal/shop/filestore"
	"github.com/aussiebroadwan/shopfront/internal/shop/mail"
	"github.com/aussiebroadwan/shopfront/internal/shop/service"
	"github.com/aussiebroadwan/shopfront/internal/shop/store/drivers/sqlite"
	"github.com/aussiebroadwan/shopfront/pkg/cryptox"
	"github.com/aussiebroadwan/shopfront/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://shop.example.com"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type sentMail struct {
	Kind string
	To   mail.Recipient
	Link string
}

// recordingMailer keeps every email instead of sending it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, to mail.Recipient, link string) error {
	return m.record("reset", to, link)
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, to mail.Recipient, link string) error {
	return m.record("verify", to, link)
}

func (m *recordingMailer) record(kind string, to mail.Recipient, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{Kind: kind, To: to, Link: link})
	return nil
}

// lastToken returns the token query parameter of the newest email of kind
// sent to email.
func (m *recordingMailer) lastToken(t *testing.T, kind, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		s := m.sent[i]
		if s.Kind == kind && s.To.Email == email {
			u, err := url.Parse(s.Link)
			require.NoError(t, err)
			return u.Query().Get("token")
		}
	}
	t.Fatalf("no %s email sent to %s", kind, email)
	return ""
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type env struct {
	Store    *sqlite.Store
	Files    *filestore.Local
	Mailer   *recordingMailer
	Clock    *clock
	Tokens   *service.TokenService
	Auth     *service.AuthService
	Users    *service.UserService
	Products *service.ProductService
	Carts    *service.CartService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	files, err := filestore.NewLocal(t.TempDir(), testOrigin)
	require.NoError(t, err)

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(testSecret, "shopfront", 0)
	require.NoError(t, err)

	clk := &clock{t: time.Now().UTC().Truncate(time.Millisecond)}
	hasher := cryptox.NewHasher(cryptox.AlgorithmArgon2id, 0, "test-pepper")
	mailer := &recordingMailer{}
	tokens := &service.TokenService{Signer: signer, Verifier: verifier, Issuer: "shopfront", Now: clk.Now}

	return &env{
		Store:  st,
		Files:  files,
		Mailer: mailer,
		Clock:  clk,
		Tokens: tokens,
		Auth: &service.AuthService{
			Store: st, Hasher: hasher, Tokens: tokens, Mailer: mailer, Files: files, Now: clk.Now,
		},
		Users: &service.UserService{
			Store: st, Hasher: hasher, Mailer: mailer, Files: files, Now: clk.Now,
		},
		Products: &service.ProductService{Store: st, Now: clk.Now},
		Carts:    &service.CartService{Store: st, Now: clk.Now},
	}
}

// registerVerified registers a user and completes email verification.
func (e *env) registerVerified(t *testing.T, email, password string) string {
	t.Helper()
	ctx := context.Background()

	u, err := e.Auth.Register(ctx, service.RegisterInput{
		FirstName: "Test", LastName: "User", Email: email, Password: password,
	}, testOrigin)
	require.NoError(t, err)

	token := e.Mailer.lastToken(t, "verify", email)
	require.NoError(t, e.Auth.VerifyEmail(ctx, token, password, password))
	return u.ID
}
