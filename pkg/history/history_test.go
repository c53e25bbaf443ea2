package history_test

import (
	"context"
	"errors"
	"filescanner/pkg/domain"
	"filescanner/pkg/history"
	"filescanner/pkg/logger"
	mockstorage "filescanner/pkg/storage/mock"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	os.Exit(m.Run())
}

var base = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC) //nolint: gochecknoglobals

func entry(i int) domain.ScanResult {
	return domain.ScanResult{
		FilePath: fmt.Sprintf("/data/file-%d", i),
		FileName: fmt.Sprintf("file-%d", i),
		ScanDate: base.Add(time.Duration(i) * time.Minute),
		Status:   domain.ScanStatusClean,
	}
}

func paths(rs []domain.ScanResult) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.FilePath)
	}

	return out
}

func TestHistory_FIFOEviction(t *testing.T) {
	h := history.New(history.Options{Limit: 3})
	ctx := context.Background()

	for i := range 3 {
		require.NoError(t, h.Append(ctx, entry(i)))
	}
	require.Equal(t, 3, h.Len())

	require.NoError(t, h.Append(ctx, entry(3)))
	require.Equal(t, 3, h.Len(), "history must never exceed its capacity")
	require.Equal(t, []string{"/data/file-1", "/data/file-2", "/data/file-3"}, paths(h.Entries()),
		"exactly the oldest entry is evicted and order is preserved")
}

func TestHistory_NeverExceedsCapacityConcurrently(t *testing.T) {
	h := history.New(history.Options{Limit: 10})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Append(ctx, entry(i))
			require.LessOrEqual(t, h.Len(), 10)
		}()
	}
	wg.Wait()
	require.Equal(t, 10, h.Len())
}

func TestHistory_Recent(t *testing.T) {
	h := history.New(history.Options{Limit: 5})
	ctx := context.Background()
	for i := range 4 {
		require.NoError(t, h.Append(ctx, entry(i)))
	}

	require.Equal(t, []string{"/data/file-3", "/data/file-2"}, paths(h.Recent(2)))
	require.Len(t, h.Recent(0), 4)
	require.Len(t, h.Recent(100), 4)
}

func TestHistory_LastScanned(t *testing.T) {
	h := history.New(history.Options{})
	ctx := context.Background()

	first := entry(1)
	again := entry(1)
	again.ScanDate = base.Add(time.Hour)
	require.NoError(t, h.Append(ctx, first))
	require.NoError(t, h.Append(ctx, entry(2)))
	require.NoError(t, h.Append(ctx, again))

	at, ok := h.LastScanned("/data/file-1")
	require.True(t, ok)
	require.Equal(t, base.Add(time.Hour), at)

	_, ok = h.LastScanned("/data/never")
	require.False(t, ok)
}

func TestHistory_SetLimitShrinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockstorage.NewMockHistoryStorage(ctrl)
	h := history.New(history.Options{Limit: 5, Storage: store})
	ctx := context.Background()

	store.EXPECT().AppendScan(gomock.Any(), gomock.Any(), 5).Return(nil).Times(4)
	for i := range 4 {
		require.NoError(t, h.Append(ctx, entry(i)))
	}

	store.EXPECT().ReplaceScans(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rs []domain.ScanResult) error {
			require.Equal(t, []string{"/data/file-2", "/data/file-3"}, paths(rs))

			return nil
		})
	h.SetLimit(ctx, 2)
	require.Equal(t, 2, h.Limit())
	require.Equal(t, []string{"/data/file-2", "/data/file-3"}, paths(h.Entries()))

	// growing never touches storage
	h.SetLimit(ctx, 50)
	require.Equal(t, 50, h.Limit())
}

func TestHistory_ConcurrentAppendsPersistInMemoryOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockstorage.NewMockHistoryStorage(ctrl)
	h := history.New(history.Options{Limit: 100, Storage: store})

	var (
		mu     sync.Mutex
		stored []domain.ScanResult
	)
	store.EXPECT().AppendScan(gomock.Any(), gomock.Any(), 100).DoAndReturn(
		func(_ context.Context, r domain.ScanResult, _ int) error {
			// a slow disk widens the window between two appends
			time.Sleep(time.Millisecond)
			mu.Lock()
			stored = append(stored, r)
			mu.Unlock()

			return nil
		}).Times(20)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, h.Append(context.Background(), entry(i)))
		}()
	}
	wg.Wait()

	require.Equal(t, paths(h.Entries()), paths(stored))
}

func TestHistory_PersistFailureKeepsMemory(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockstorage.NewMockHistoryStorage(ctrl)
	h := history.New(history.Options{Limit: 5, Storage: store})

	store.EXPECT().AppendScan(gomock.Any(), gomock.Any(), 5).Return(errors.New("disk full"))
	err := h.Append(context.Background(), entry(1))
	require.Error(t, err)
	require.Equal(t, 1, h.Len())
}

func TestHistory_LoadKeepsNewest(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockstorage.NewMockHistoryStorage(ctrl)
	h := history.New(history.Options{Limit: 2, Storage: store})

	store.EXPECT().Scans(gomock.Any()).Return([]domain.ScanResult{entry(1), entry(2), entry(3)}, nil)
	require.NoError(t, h.Load(context.Background()))
	require.Equal(t, []string{"/data/file-2", "/data/file-3"}, paths(h.Entries()))
}

func TestHistory_ReplaceAndClear(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockstorage.NewMockHistoryStorage(ctrl)
	h := history.New(history.Options{Limit: 10, Storage: store})
	ctx := context.Background()

	store.EXPECT().ReplaceScans(gomock.Any(), []domain.ScanResult{entry(7), entry(8)}).Return(nil)
	require.NoError(t, h.Replace(ctx, []domain.ScanResult{entry(7), entry(8)}))
	require.Equal(t, 2, h.Len())

	store.EXPECT().ClearScans(gomock.Any()).Return(nil)
	require.NoError(t, h.Clear(ctx))
	require.Equal(t, 0, h.Len())
}

func TestHistory_NoStorage(t *testing.T) {
	h := history.New(history.Options{})
	ctx := context.Background()

	require.Equal(t, history.DefaultLimit, h.Limit())
	require.NoError(t, h.Load(ctx))
	require.NoError(t, h.Append(ctx, entry(1)))
	require.NoError(t, h.Replace(ctx, nil))
	require.NoError(t, h.Clear(ctx))
}
