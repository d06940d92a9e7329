package galaxy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seqlabs/genoportal/internal/galaxy"
	"github.com/seqlabs/genoportal/internal/galaxy/mock"
	"github.com/seqlabs/genoportal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastOpts = galaxy.WaitOptions{PollInterval: time.Millisecond, MaxWait: time.Second}

func TestAwaitCompletion_ReturnsOKState(t *testing.T) {
	states := []string{"new", "queued", "running", models.JobStateOK}
	i := 0
	client := &mock.Client{
		ShowJobFunc: func(_ context.Context, jobID string) (models.Job, error) {
			state := states[i]
			if i < len(states)-1 {
				i++
			}
			return models.Job{ID: jobID, State: state}, nil
		},
	}

	state, err := galaxy.AwaitCompletion(context.Background(), client, "j1", fastOpts)
	require.NoError(t, err)
	assert.Equal(t, models.JobStateOK, state)
	assert.Equal(t, len(states), client.ShowJobCalls["j1"])
}

func TestAwaitCompletion_ErrorStateIsNotAnError(t *testing.T) {
	client := &mock.Client{
		ShowJobFunc: func(_ context.Context, jobID string) (models.Job, error) {
			return models.Job{ID: jobID, State: models.JobStateError}, nil
		},
	}

	state, err := galaxy.AwaitCompletion(context.Background(), client, "j1", fastOpts)
	require.NoError(t, err)
	assert.Equal(t, models.JobStateError, state)
}

func TestAwaitCompletion_MaxWaitExceeded(t *testing.T) {
	client := &mock.Client{
		ShowJobFunc: func(_ context.Context, jobID string) (models.Job, error) {
			return models.Job{ID: jobID, State: "running"}, nil
		},
	}

	opts := galaxy.WaitOptions{PollInterval: time.Millisecond, MaxWait: 20 * time.Millisecond}
	_, err := galaxy.AwaitCompletion(context.Background(), client, "j1", opts)
	assert.ErrorIs(t, err, galaxy.ErrWaitTimeout)
}

func TestAwaitCompletion_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &mock.Client{
		ShowJobFunc: func(_ context.Context, jobID string) (models.Job, error) {
			cancel()
			return models.Job{ID: jobID, State: "running"}, nil
		},
	}

	_, err := galaxy.AwaitCompletion(ctx, client, "j1", fastOpts)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, galaxy.ErrWaitTimeout)
}

func TestAwaitCompletion_PollFailurePropagates(t *testing.T) {
	boom := errors.New("galaxy down")
	client := &mock.Client{
		ShowJobFunc: func(_ context.Context, _ string) (models.Job, error) {
			return models.Job{}, boom
		},
	}

	_, err := galaxy.AwaitCompletion(context.Background(), client, "j1", fastOpts)
	assert.ErrorIs(t, err, boom)
}
