package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
)

type fakeService struct {
	id     int64
	closed atomic.Bool
}

func (f *fakeService) Close() error {
	f.closed.Store(true)
	return nil
}

func quietLogger(t *testing.T) *MockLogger {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return log
}

func countingConnector(calls *atomic.Int64, delay time.Duration) Connector {
	return func(ctx context.Context) (Service, error) {
		n := calls.Add(1)
		time.Sleep(delay)
		return &fakeService{id: n}, nil
	}
}

func TestGetServiceConcurrentFirstAccess(t *testing.T) {
	var calls atomic.Int64
	reg := NewRegistry(quietLogger(t), nil)
	require.NoError(t, reg.Register(Binding{Kind: TimeSeries, Connector: countingConnector(&calls, 20*time.Millisecond)}))

	const n = 64
	results := make([]Service, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			svc, err := reg.GetService(context.Background(), TimeSeries)
			assert.NoError(t, err)
			results[i] = svc
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, svc := range results {
		assert.Same(t, results[0], svc)
	}
	assert.Equal(t, Ready, reg.State(TimeSeries))
}

func TestGetServiceFailureLeavesUninitialized(t *testing.T) {
	var attempts atomic.Int64
	boom := errors.New("connection refused")
	reg := NewRegistry(quietLogger(t), nil)
	require.NoError(t, reg.Register(Binding{Kind: Analytical, Connector: func(ctx context.Context) (Service, error) {
		if attempts.Add(1) == 1 {
			return nil, boom
		}
		return &fakeService{}, nil
	}}))

	_, err := reg.GetService(context.Background(), Analytical)
	require.Error(t, err)
	assert.True(t, IsBackend(err))
	assert.True(t, errors.Is(err, boom))

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, Analytical, be.Kind)
	assert.Equal(t, "connect", be.Op)
	assert.Equal(t, Uninitialized, reg.State(Analytical))

	svc, err := reg.GetService(context.Background(), Analytical)
	require.NoError(t, err)
	assert.NotNil(t, svc)
	assert.Equal(t, int64(2), attempts.Load())
}

func TestGetServiceNilServiceIsAnError(t *testing.T) {
	reg := NewRegistry(quietLogger(t), nil)
	require.NoError(t, reg.Register(Binding{Kind: Analytical, Connector: func(ctx context.Context) (Service, error) {
		return nil, nil
	}}))
	_, err := reg.GetService(context.Background(), Analytical)
	assert.True(t, IsBackend(err))
}

func TestGetServiceUnknownKind(t *testing.T) {
	reg := NewRegistry(quietLogger(t), nil)
	_, err := reg.GetService(context.Background(), TimeSeries)
	assert.True(t, errors.Is(err, ErrUnknownKind))
	assert.Equal(t, Uninitialized, reg.State(TimeSeries))
}

func TestRegisterTwice(t *testing.T) {
	var calls atomic.Int64
	reg := NewRegistry(quietLogger(t), nil)
	b := Binding{Kind: TimeSeries, Connector: countingConnector(&calls, 0)}
	require.NoError(t, reg.Register(b))
	assert.True(t, errors.Is(reg.Register(b), ErrAlreadyRegistered))
	assert.Error(t, reg.Register(Binding{Kind: Analytical}))
}

func TestGetTyped(t *testing.T) {
	var calls atomic.Int64
	reg := NewRegistry(quietLogger(t), nil)
	require.NoError(t, reg.Register(Binding{Kind: TimeSeries, Connector: countingConnector(&calls, 0)}))

	svc, err := Get[*fakeService](context.Background(), reg, TimeSeries)
	require.NoError(t, err)
	assert.Equal(t, int64(1), svc.id)

	_, err = Get[interface{ Ping() error }](context.Background(), reg, TimeSeries)
	assert.Error(t, err)
}

func TestShutdownResetsState(t *testing.T) {
	var calls atomic.Int64
	reg := NewRegistry(quietLogger(t), nil)
	require.NoError(t, reg.Register(Binding{Kind: TimeSeries, Connector: countingConnector(&calls, 0)}))

	first, err := Get[*fakeService](context.Background(), reg, TimeSeries)
	require.NoError(t, err)

	require.NoError(t, reg.ShutdownAll())
	assert.True(t, first.closed.Load())
	assert.Equal(t, Uninitialized, reg.State(TimeSeries))
	require.NoError(t, reg.Shutdown(TimeSeries))

	second, err := Get[*fakeService](context.Background(), reg, TimeSeries)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestWarmUpConnectsInBackground(t *testing.T) {
	var ts, an atomic.Int64
	reg := NewRegistry(quietLogger(t), nil)
	require.NoError(t, reg.Register(Binding{Kind: TimeSeries, Connector: countingConnector(&ts, 0)}))
	require.NoError(t, reg.Register(Binding{Kind: Analytical, Connector: func(ctx context.Context) (Service, error) {
		an.Add(1)
		return nil, errors.New("down")
	}}))

	select {
	case <-reg.WarmUp(context.Background()):
	case <-time.After(time.Second):
		t.Fatal("warm-up did not finish")
	}

	assert.Equal(t, Ready, reg.State(TimeSeries))
	assert.Equal(t, Uninitialized, reg.State(Analytical))
	assert.Equal(t, int64(1), an.Load())
}

func TestFXModuleRegistersBindings(t *testing.T) {
	var calls atomic.Int64
	var reg *Registry

	app := fxtest.New(t,
		fx.Supply(Config{WarmUp: true}),
		fx.Provide(func() Logger { return quietLogger(t) }),
		fx.Provide(AsBinding(func() Binding {
			return Binding{Kind: TimeSeries, Connector: countingConnector(&calls, 0)}
		})),
		FXModule,
		fx.Populate(&reg),
	)
	app.RequireStart()

	assert.Eventually(t, func() bool { return reg.State(TimeSeries) == Ready }, time.Second, 5*time.Millisecond)

	app.RequireStop()
	assert.Equal(t, Uninitialized, reg.State(TimeSeries))
}
