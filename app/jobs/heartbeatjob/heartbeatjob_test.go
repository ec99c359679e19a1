package heartbeatjob

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockHeartbeatService struct {
	mock.Mock
}

func (m *MockHeartbeatService) Send() error {
	args := m.Called()
	return args.Error(0)
}

// immediateTrigger fires the job function exactly once, synchronously
func immediateTrigger(done chan struct{}) TriggerFunc {
	return func(ctx context.Context, fn func() error) {
		fn() //nolint:errcheck
		close(done)
	}
}

// TestRegister_TriggersHeartbeat - verifies the job invokes the service on trigger
func TestRegister_TriggersHeartbeat(t *testing.T) {
	svc := new(MockHeartbeatService)
	svc.On("Send").Return(nil)

	done := make(chan struct{})
	job := NewWithConfig(HeartbeatJobConfig{Trigger: immediateTrigger(done)})
	cancel := job.Register(context.Background(), svc)
	defer cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trigger never fired")
	}

	job.Shutdown()
	svc.AssertExpectations(t)
}

// TestShutdown_StopsTriggerLoop - verifies shutdown cancels the trigger context
func TestShutdown_StopsTriggerLoop(t *testing.T) {
	svc := new(MockHeartbeatService)

	stopped := make(chan struct{})
	job := NewWithConfig(HeartbeatJobConfig{
		Trigger: func(ctx context.Context, fn func() error) {
			<-ctx.Done()
			close(stopped)
		},
	})
	job.Register(context.Background(), svc)
	job.Shutdown()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not cancel the trigger")
	}
}

// TestTriggerWithConfig_RunsOnInterval - verifies the ticker loop calls the function
func TestTriggerWithConfig_RunsOnInterval(t *testing.T) {
	calls := make(chan struct{}, 3)
	ctx, cancel := context.WithCancel(context.Background())

	go TriggerWithConfig(ctx, func() error {
		calls <- struct{}{}
		return nil
	}, TriggerConfig{Interval: time.Millisecond})

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatal("tick never arrived")
		}
	}
	cancel()
}
