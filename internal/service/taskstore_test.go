package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DebjyotiRay/orchids-challenge/internal/workflow"
)

func seedTasks(t *testing.T, store *TaskStore, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		require.NoError(t, store.Create(Task{
			ID:        fmt.Sprintf("task-%d", i),
			URL:       fmt.Sprintf("https://site-%d.test", i),
			Status:    workflow.StatusPending,
			CreatedAt: time.Now(),
		}))
	}
}

func TestTaskStore_CreateRejectsDuplicateID(t *testing.T) {
	store := NewTaskStore()
	require.NoError(t, store.Create(Task{ID: "dup"}))

	err := store.Create(Task{ID: "dup"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestTaskStore_GetReturnsIndependentCopy(t *testing.T) {
	store := NewTaskStore()
	require.NoError(t, store.Create(Task{
		ID:     "t1",
		Status: workflow.StatusCompleted,
		Result: &GenerationResponse{Status: "success", QualityScore: 95},
	}))

	got, err := store.Get("t1")
	require.NoError(t, err)
	got.Status = workflow.StatusFailed
	got.Result.QualityScore = 0

	again, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, again.Status)
	assert.Equal(t, float64(95), again.Result.QualityScore)
}

func TestTaskStore_GetUnknownID(t *testing.T) {
	_, err := NewTaskStore().Get("ghost")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskStore_UpdateMutatesInPlace(t *testing.T) {
	store := NewTaskStore()
	require.NoError(t, store.Create(Task{ID: "t1", Status: workflow.StatusPending}))

	require.NoError(t, store.Update("t1", func(task *Task) {
		task.Status = workflow.StatusRunning
	}))

	got, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRunning, got.Status)

	require.ErrorIs(t, store.Update("ghost", func(*Task) {}), ErrTaskNotFound)
}

func TestTaskStore_ListPreservesInsertionOrder(t *testing.T) {
	store := NewTaskStore()
	seedTasks(t, store, 3)

	resp, err := store.List(ListTasksRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Tasks, 3)
	assert.Equal(t, "task-1", resp.Tasks[0].ID)
	assert.Equal(t, "task-3", resp.Tasks[2].ID)
	assert.Equal(t, 3, resp.TotalSize)
	assert.Empty(t, resp.NextPageToken)
}

func TestTaskStore_ListPaginates(t *testing.T) {
	store := NewTaskStore()
	seedTasks(t, store, 5)

	page1, err := store.List(ListTasksRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page1.Tasks, 2)
	assert.Equal(t, 5, page1.TotalSize, "total covers the full match set, not the page")
	assert.Equal(t, "task-2", page1.NextPageToken)

	page2, err := store.List(ListTasksRequest{PageSize: 2, PageToken: page1.NextPageToken})
	require.NoError(t, err)
	require.Len(t, page2.Tasks, 2)
	assert.Equal(t, "task-3", page2.Tasks[0].ID)
	assert.Equal(t, 5, page2.TotalSize)

	page3, err := store.List(ListTasksRequest{PageSize: 2, PageToken: page2.NextPageToken})
	require.NoError(t, err)
	require.Len(t, page3.Tasks, 1)
	assert.Empty(t, page3.NextPageToken)
}

func TestTaskStore_ListFiltersByStatus(t *testing.T) {
	store := NewTaskStore()
	seedTasks(t, store, 3)
	require.NoError(t, store.Update("task-2", func(task *Task) {
		task.Status = workflow.StatusCompleted
	}))

	resp, err := store.List(ListTasksRequest{Status: string(workflow.StatusCompleted)})
	require.NoError(t, err)
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "task-2", resp.Tasks[0].ID)
	assert.Equal(t, 1, resp.TotalSize)
}

func TestTaskStore_ListRejectsInvalidPageToken(t *testing.T) {
	store := NewTaskStore()
	seedTasks(t, store, 2)

	_, err := store.List(ListTasksRequest{PageToken: "ghost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page token")
}

func TestTaskStore_ListEmptyStoreReturnsEmptySlice(t *testing.T) {
	resp, err := NewTaskStore().List(ListTasksRequest{})
	require.NoError(t, err)
	assert.NotNil(t, resp.Tasks)
	assert.Empty(t, resp.Tasks)
	assert.Zero(t, resp.TotalSize)
}
