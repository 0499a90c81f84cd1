package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/vfx"
)

// stubBackend is a minimal Backend for registry tests.
type stubBackend struct {
	name    string
	initErr error
	inited  bool
	closed  bool
	phase   Phase
}

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) OnStateUpdate(vfx.EffectState) {}

func (b *stubBackend) OnEvent(vfx.EventType, any) {}

func (b *stubBackend) Contribution() (vfx.Contribution, error) {
	return vfx.Contribution{}, nil
}

func (b *stubBackend) Init() error {
	if b.initErr != nil {
		b.phase = PhaseFallenBack
		return b.initErr
	}
	b.inited = true
	b.phase = PhaseReady
	return nil
}

func (b *stubBackend) Close()       { b.closed = true; b.phase = PhaseDestroyed }
func (b *stubBackend) Phase() Phase { return b.phase }

func registerStub(t *testing.T, name string, initErr error) *stubBackend {
	t.Helper()
	b := &stubBackend{name: name, initErr: initErr}
	Register(name, func() Backend { return b })
	t.Cleanup(func() { Unregister(name) })
	return b
}

func TestRegisterAndGet(t *testing.T) {
	registerStub(t, BackendSoftware, nil)

	if !IsRegistered(BackendSoftware) {
		t.Error("IsRegistered = false after Register")
	}
	if b := Get(BackendSoftware); b == nil || b.Name() != BackendSoftware {
		t.Errorf("Get returned %v", b)
	}
	if b := Get("nope"); b != nil {
		t.Errorf("Get(unknown) = %v, want nil", b)
	}
}

func TestUnregister(t *testing.T) {
	registerStub(t, "temp", nil)
	Unregister("temp")
	if IsRegistered("temp") {
		t.Error("still registered after Unregister")
	}
}

func TestAvailable(t *testing.T) {
	registerStub(t, BackendGPU, nil)
	registerStub(t, BackendSoftware, nil)

	names := Available()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found[BackendGPU] || !found[BackendSoftware] {
		t.Errorf("Available = %v", names)
	}
}

func TestDefaultPrefersGPU(t *testing.T) {
	registerStub(t, BackendSoftware, nil)
	registerStub(t, BackendGPU, nil)

	b := Default()
	if b == nil || b.Name() != BackendGPU {
		t.Errorf("Default = %v, want gpu", b)
	}
}

func TestDefaultFallsToSoftware(t *testing.T) {
	registerStub(t, BackendSoftware, nil)

	b := Default()
	if b == nil || b.Name() != BackendSoftware {
		t.Errorf("Default = %v, want software", b)
	}
}

func TestInitDefaultSkipsFailingBackend(t *testing.T) {
	// A GPU backend whose probe fails must degrade silently to the
	// software path.
	gpu := registerStub(t, BackendGPU, errors.New("no adapter"))
	sw := registerStub(t, BackendSoftware, nil)

	b, err := InitDefault()
	if err != nil {
		t.Fatalf("InitDefault error = %v", err)
	}
	if b.Name() != BackendSoftware || !sw.inited {
		t.Errorf("InitDefault picked %q, want software", b.Name())
	}
	if gpu.inited {
		t.Error("failing backend reported initialized")
	}
}

func TestInitDefaultAllFail(t *testing.T) {
	registerStub(t, BackendGPU, errors.New("probe failed"))
	registerStub(t, BackendSoftware, errors.New("out of memory"))

	if _, err := InitDefault(); err == nil {
		t.Error("InitDefault = nil error, want failure")
	}
}

func TestInitDefaultEmptyRegistry(t *testing.T) {
	if _, err := InitDefault(); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("err = %v, want ErrBackendNotAvailable", err)
	}
}

func TestInitErrorUnwrap(t *testing.T) {
	cause := errors.New("limits too low")
	err := &InitError{Stage: "capability-probe", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("InitError does not unwrap to its cause")
	}
	if err.Error() == "" {
		t.Error("empty error string")
	}
}
