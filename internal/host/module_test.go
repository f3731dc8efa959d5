package host

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unsafe"

	gjwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap/zapcore"

	"github.com/MrEthical07/pgjwt"
	"github.com/MrEthical07/pgjwt/jwt"
	"github.com/MrEthical07/pgjwt/secret"
)

type hostLog struct {
	mu    sync.Mutex
	lines []string
	sev   []int
}

func (l *hostLog) emit(level zapcore.Level, line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
	l.sev = append(l.sev, Severity(level))
}

func (l *hostLog) contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

type heapAllocator struct {
	bufs [][]byte
}

func (a *heapAllocator) Strdup(s string) (unsafe.Pointer, error) {
	b := append([]byte(s), 0)
	a.bufs = append(a.bufs, b)
	return unsafe.Pointer(&b[0]), nil
}

func newTestModule(t *testing.T) (*Module, *hostLog) {
	t.Helper()
	log := &hostLog{}
	m := NewModule(log.emit, &secret.Store{})
	m.loadConfig = func() (pgjwt.Config, error) {
		cfg := pgjwt.DefaultConfig()
		cfg.Log.Level = "debug"
		return cfg, nil
	}
	return m, log
}

func signedToken(t *testing.T, key string) string {
	t.Helper()
	s, err := jwt.NewSigner([]byte(key))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	tok, err := s.Sign(jwt.Claims{
		Subject:   "u1",
		Email:     "u1@x.com",
		Role:      "analyst",
		Issuer:    "issuer-a",
		Audience:  gjwt.ClaimStrings{"scope-a"},
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestSeverity(t *testing.T) {
	cases := map[zapcore.Level]int{
		zapcore.DebugLevel:  SeverityDebug,
		zapcore.InfoLevel:   SeverityInfo,
		zapcore.WarnLevel:   SeverityWarning,
		zapcore.ErrorLevel:  SeverityError,
		zapcore.DPanicLevel: SeverityError,
	}
	for level, want := range cases {
		if got := Severity(level); got != want {
			t.Fatalf("%s: expected %d, got %d", level, want, got)
		}
	}
}

func TestModuleLifecycle(t *testing.T) {
	m, log := newTestModule(t)

	h := m.Startup([]byte("s3cr3t"))
	alloc := &heapAllocator{}
	res, err := m.Validate(h, signedToken(t, "s3cr3t"), "analyst", alloc)
	if err != nil || !res.Authorized {
		t.Fatalf("expected authorized, got %+v %v", res, err)
	}
	m.Shutdown(h)
	m.Shutdown(h)

	if !log.contains("module state released") {
		t.Fatal("expected shutdown to be logged through the host")
	}
}

func TestModuleSecretCapturedOnce(t *testing.T) {
	m, _ := newTestModule(t)

	h1 := m.Startup([]byte("first"))
	h2 := m.Startup([]byte("second"))
	defer m.Shutdown(h1)
	defer m.Shutdown(h2)

	alloc := &heapAllocator{}
	res, _ := m.Validate(h2, signedToken(t, "second"), "analyst", alloc)
	if res.Authorized {
		t.Fatal("later secret values must not replace the first")
	}
	res, _ = m.Validate(h2, signedToken(t, "first"), "analyst", alloc)
	if !res.Authorized {
		t.Fatal("expected the first secret to stay in effect")
	}
}

func TestModuleWithoutSecretWarnsAndDenies(t *testing.T) {
	m, log := newTestModule(t)

	h := m.Startup(nil)
	defer m.Shutdown(h)

	if !log.contains("pg_jwt_validator.secret is not set at startup") {
		t.Fatal("expected unconfigured warning")
	}
	alloc := &heapAllocator{}
	res, err := m.Validate(h, signedToken(t, "anything"), "analyst", alloc)
	if err != nil || res.Authorized || len(alloc.bufs) != 0 {
		t.Fatalf("expected a denial without allocation, got %+v %v", res, err)
	}
}

func TestModuleSecretFileFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	m, _ := newTestModule(t)
	m.loadConfig = func() (pgjwt.Config, error) {
		cfg := pgjwt.DefaultConfig()
		cfg.Secret.File = path
		return cfg, nil
	}

	h := m.Startup(nil)
	defer m.Shutdown(h)
	res, _ := m.Validate(h, signedToken(t, "from-file"), "analyst", &heapAllocator{})
	if !res.Authorized {
		t.Fatal("expected the secret file to configure the module")
	}
}

func TestModuleFallsBackOnBadConfig(t *testing.T) {
	m, log := newTestModule(t)
	m.loadConfig = func() (pgjwt.Config, error) {
		return pgjwt.Config{}, errors.New("broken yaml")
	}

	h := m.Startup([]byte("s3cr3t"))
	defer m.Shutdown(h)

	if !log.contains("invalid configuration, using defaults") {
		t.Fatal("expected configuration fallback to be logged")
	}
	res, _ := m.Validate(h, signedToken(t, "s3cr3t"), "analyst", &heapAllocator{})
	if !res.Authorized {
		t.Fatal("module must keep working on default configuration")
	}
}

func TestModuleAuditFailureDoesNotBlockStartup(t *testing.T) {
	m, log := newTestModule(t)
	m.loadConfig = func() (pgjwt.Config, error) {
		cfg := pgjwt.DefaultConfig()
		cfg.Audit.Enabled = true
		cfg.Audit.Path = filepath.Join(t.TempDir(), "missing", "dir", "audit.jsonl")
		return cfg, nil
	}

	h := m.Startup([]byte("s3cr3t"))
	defer m.Shutdown(h)

	if !log.contains("audit log unavailable") {
		t.Fatal("expected audit fallback warning")
	}
	res, _ := m.Validate(h, signedToken(t, "s3cr3t"), "analyst", &heapAllocator{})
	if !res.Authorized {
		t.Fatal("expected module to work without audit")
	}
}

func TestModuleValidateBeforeStartupDenies(t *testing.T) {
	m, log := newTestModule(t)
	res, err := m.Validate(1, "token", "analyst", &heapAllocator{})
	if err != nil || res.Authorized {
		t.Fatalf("expected denial, got %+v %v", res, err)
	}
	if !log.contains("not configured, secret not set at startup") {
		t.Fatal("expected a warning for validation without a module state")
	}
	m.Shutdown(1)
}

func TestModuleValidateZeroHandleDenies(t *testing.T) {
	m, _ := newTestModule(t)
	h := m.Startup([]byte("s3cr3t"))
	defer m.Shutdown(h)

	alloc := &heapAllocator{}
	res, err := m.Validate(0, signedToken(t, "s3cr3t"), "analyst", alloc)
	if err != nil || res.Authorized || len(alloc.bufs) != 0 {
		t.Fatalf("expected a denial without allocation, got %+v %v", res, err)
	}
	m.Shutdown(0)
}

func TestModuleShutdownFlushesAuditLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	m, _ := newTestModule(t)
	m.loadConfig = func() (pgjwt.Config, error) {
		cfg := pgjwt.DefaultConfig()
		cfg.Audit.Enabled = true
		cfg.Audit.Path = path
		return cfg, nil
	}

	h := m.Startup([]byte("s3cr3t"))
	res, _ := m.Validate(h, signedToken(t, "s3cr3t"), "analyst", &heapAllocator{})
	if !res.Authorized {
		t.Fatal("expected authorized")
	}
	m.Shutdown(h)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{"module_startup", "validate_authorized", "module_shutdown"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d audit lines, got %d: %q", len(want), len(lines), data)
	}
	for i, event := range want {
		if !strings.Contains(lines[i], `"event_type":"`+event+`"`) {
			t.Fatalf("line %d: expected %s, got %s", i, event, lines[i])
		}
	}
}

func TestModuleKeepsValidatorWhileStatesOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	m, _ := newTestModule(t)
	m.loadConfig = func() (pgjwt.Config, error) {
		cfg := pgjwt.DefaultConfig()
		cfg.Audit.Enabled = true
		cfg.Audit.Path = path
		return cfg, nil
	}

	h1 := m.Startup([]byte("s3cr3t"))
	h2 := m.Startup(nil)
	m.Shutdown(h1)

	res, _ := m.Validate(h2, signedToken(t, "s3cr3t"), "analyst", &heapAllocator{})
	if !res.Authorized {
		t.Fatal("remaining state must keep validating")
	}
	m.Shutdown(h2)

	// A startup after the last shutdown gets a fresh validator and the original secret.
	h3 := m.Startup([]byte("other"))
	res, _ = m.Validate(h3, signedToken(t, "s3cr3t"), "analyst", &heapAllocator{})
	if !res.Authorized {
		t.Fatal("expected the captured secret to survive a rebuild")
	}
	m.Shutdown(h3)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if got := strings.Count(string(data), `"event_type":"module_shutdown"`); got != 3 {
		t.Fatalf("expected 3 shutdown events, got %d: %s", got, data)
	}
}
