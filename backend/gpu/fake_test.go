package gpu

import (
	"errors"
	"fmt"
	"sync"
)

// fakeContext is a scriptable Context for backend tests. Failure modes
// are toggled per call site; every operation is recorded.
type fakeContext struct {
	mu sync.Mutex

	failFull    bool
	failReduced bool
	failLabels  map[string]bool
	failTexture bool
	maxTexture  int

	acquired bool
	next     uint64
	shaders  map[ShaderHandle]string
	textures map[TextureHandle]int

	compiles   []string
	texCreates int
	presents   []Frame
	releases   int
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		maxTexture: 4096,
		failLabels: map[string]bool{},
		shaders:    map[ShaderHandle]string{},
		textures:   map[TextureHandle]int{},
	}
}

func (f *fakeContext) Acquire(reduced bool) (Capabilities, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !reduced && f.failFull {
		return Capabilities{}, fmt.Errorf("%w: scripted full failure", ErrNoAdapter)
	}
	if reduced && f.failReduced {
		return Capabilities{}, fmt.Errorf("%w: scripted reduced failure", ErrNoAdapter)
	}
	f.acquired = true
	return Capabilities{
		AdapterName:    "fake-adapter",
		MaxTextureSize: f.maxTexture,
		Reduced:        reduced,
	}, nil
}

func (f *fakeContext) CompileShader(label, source string) (ShaderHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.acquired {
		return InvalidShader, ErrContextReleased
	}
	f.compiles = append(f.compiles, label)
	if f.failLabels[label] {
		return InvalidShader, errors.New("scripted compile failure: " + label)
	}
	f.next++
	h := ShaderHandle(f.next)
	f.shaders[h] = label
	return h, nil
}

func (f *fakeContext) CreateGradientTexture(label string, ramp []uint8, width int) (TextureHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.acquired {
		return InvalidTexture, ErrContextReleased
	}
	f.texCreates++
	if f.failTexture {
		return InvalidTexture, errors.New("scripted texture failure")
	}
	if width <= 0 || len(ramp) != width*4 {
		return InvalidTexture, fmt.Errorf("bad ramp: %d bytes for width %d", len(ramp), width)
	}
	f.next++
	h := TextureHandle(f.next)
	f.textures[h] = width
	return h, nil
}

func (f *fakeContext) DestroyTexture(h TextureHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.textures, h)
}

func (f *fakeContext) Present(frame Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.acquired {
		return ErrContextReleased
	}
	if _, ok := f.shaders[frame.Shader]; !ok {
		return errors.New("present with unknown shader")
	}
	if _, ok := f.textures[frame.Texture]; !ok {
		return errors.New("present with unknown texture")
	}
	f.presents = append(f.presents, frame)
	return nil
}

func (f *fakeContext) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired = false
	f.releases++
	clear(f.shaders)
	clear(f.textures)
}

func (f *fakeContext) presentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.presents)
}

func (f *fakeContext) textureCreates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texCreates
}
