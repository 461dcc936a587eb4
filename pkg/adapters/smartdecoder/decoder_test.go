package smartdecoder

import (
	"errors"
	"testing"

	"github.com/user/fasthumb/pkg/adapters/logger"
	"github.com/user/fasthumb/pkg/mocks"
	"github.com/user/fasthumb/pkg/ports"
)

// stubEngines replaces the engine constructors for the duration of a test.
func stubEngines(t *testing.T, hasNVDEC bool, nvErr, ffErr error) (nv, ff *mocks.HardwareDecoder) {
	t.Helper()
	nv = mocks.NewHardwareDecoder(320, 240)
	ff = mocks.NewHardwareDecoder(320, 240)

	oldAvail, oldNV, oldFF := nvdecAvailable, newNVDEC, newFFmpeg
	t.Cleanup(func() {
		nvdecAvailable, newNVDEC, newFFmpeg = oldAvail, oldNV, oldFF
	})

	nvdecAvailable = func() bool { return hasNVDEC }
	newNVDEC = func(Options, ports.Logger) (ports.HardwareDecoder, error) {
		if nvErr != nil {
			return nil, nvErr
		}
		return nv, nil
	}
	newFFmpeg = func(Options, ports.Logger) (ports.HardwareDecoder, error) {
		if ffErr != nil {
			return nil, ffErr
		}
		return ff, nil
	}
	return nv, ff
}

func TestNew_AutoPrefersNVDEC(t *testing.T) {
	nv, _ := stubEngines(t, true, nil, nil)

	engine, info, err := New(Options{}, logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine != nv || info.Backend != BackendNVDEC || info.Fallback {
		t.Errorf("expected NVDEC, got %+v", info)
	}
}

func TestNew_AutoFallsBackToFFmpeg(t *testing.T) {
	_, ff := stubEngines(t, false, nil, nil)

	engine, info, err := New(Options{Backend: BackendAuto}, logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine != ff || info.Backend != BackendFFmpeg || !info.Fallback {
		t.Errorf("expected ffmpeg fallback, got %+v", info)
	}
}

func TestNew_AutoFallsBackWhenDeviceFails(t *testing.T) {
	_, ff := stubEngines(t, true, errors.New("no device"), nil)

	engine, info, err := New(Options{}, logger.NewNoop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine != ff || info.Backend != BackendFFmpeg {
		t.Errorf("expected ffmpeg, got %+v", info)
	}
}

func TestNew_NothingAvailable(t *testing.T) {
	stubEngines(t, false, nil, errors.New("ffmpeg missing"))

	if _, _, err := New(Options{}, logger.NewNoop()); !errors.Is(err, ErrNoDecoderAvailable) {
		t.Errorf("expected ErrNoDecoderAvailable, got %v", err)
	}
}

func TestNew_ExplicitBackend(t *testing.T) {
	nvErr := errors.New("no device")
	_, ff := stubEngines(t, false, nvErr, nil)

	if _, _, err := New(Options{Backend: BackendNVDEC}, logger.NewNoop()); !errors.Is(err, nvErr) {
		t.Errorf("expected NVDEC error without fallback, got %v", err)
	}

	engine, info, err := New(Options{Backend: BackendFFmpeg}, logger.NewNoop())
	if err != nil || engine != ff || info.Fallback {
		t.Errorf("expected explicit ffmpeg, got %+v, %v", info, err)
	}

	if _, _, err := New(Options{Backend: "vaapi"}, logger.NewNoop()); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestParseBackend(t *testing.T) {
	for in, want := range map[string]Backend{"": BackendAuto, "auto": BackendAuto, "nvdec": BackendNVDEC, "ffmpeg": BackendFFmpeg} {
		got, err := ParseBackend(in)
		if err != nil || got != want {
			t.Errorf("ParseBackend(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseBackend("cpu"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}
